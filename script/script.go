// Package script runs wizard supplied JavaScript against the console's
// command surface. The console binds its operations (goto, equip, ...) as
// global functions; scripts are just a programmable way to issue the same
// commands.
package script

import (
	"context"
	"fmt"
	"io"
	"log"
	"runtime"
	"time"

	"rogchap.com/v8go"

	"github.com/arvefors/starcon"
)

var machines chan *machine

func init() {
	machines = make(chan *machine, runtime.NumCPU())
	for i := 0; i < runtime.NumCPU(); i++ {
		m, err := newMachine()
		if err != nil {
			log.Panic(err)
		}
		machines <- m
	}
}

type machine struct {
	iso                    *v8go.Isolate
	unableToGenerateString *v8go.Value
}

func newMachine() (*machine, error) {
	m := &machine{
		iso: v8go.NewIsolate(),
	}
	var err error
	if m.unableToGenerateString, err = v8go.NewValue(m.iso, "unable to generate exception"); err != nil {
		return nil, starcon.WithStack(err)
	}
	return m, nil
}

// Bindings maps global function names to their Go implementations.
type Bindings map[string]func(rc *RunContext, info *v8go.FunctionCallbackInfo) *v8go.Value

// Target is one script execution request.
type Target struct {
	Source   string
	Origin   string
	Bindings Bindings
	Console  io.Writer
}

// RunContext is handed to bindings during a run.
type RunContext struct {
	m    *machine
	t    *Target
	vctx *v8go.Context
}

func (rc *RunContext) Context() *v8go.Context {
	return rc.vctx
}

// String converts s to a v8 value, falling back to a canned value when the
// isolate can't allocate.
func (rc *RunContext) String(s string) *v8go.Value {
	if res, err := v8go.NewValue(rc.m.iso, s); err == nil {
		return res
	}
	return rc.m.unableToGenerateString
}

// Throw raises a JS exception inside the script.
func (rc *RunContext) Throw(format string, args ...any) *v8go.Value {
	return rc.m.iso.ThrowException(rc.String(fmt.Sprintf(format, args...)))
}

func (rc *RunContext) addBinding(
	name string,
	f func(*RunContext, *v8go.FunctionCallbackInfo) *v8go.Value,
) error {
	return starcon.WithStack(
		rc.vctx.Global().Set(
			name,
			v8go.NewFunctionTemplate(
				rc.m.iso,
				func(info *v8go.FunctionCallbackInfo) *v8go.Value {
					return f(rc, info)
				},
			).GetFunction(rc.vctx),
		),
	)
}

func logFunc(w io.Writer) func(*RunContext, *v8go.FunctionCallbackInfo) *v8go.Value {
	return func(rc *RunContext, info *v8go.FunctionCallbackInfo) *v8go.Value {
		anyArgs := []any{}
		for _, arg := range info.Args() {
			stringArg := arg.String()
			if stringArg == "[object Object]" {
				if jsonArg, err := v8go.JSONStringify(rc.Context(), arg); err == nil {
					stringArg = jsonArg
				}
			}
			anyArgs = append(anyArgs, stringArg)
		}
		log.New(w, "", 0).Println(anyArgs...)
		return nil
	}
}

func (rc *RunContext) prepare() error {
	for name, fun := range rc.t.Bindings {
		if err := rc.addBinding(name, fun); err != nil {
			return starcon.WithStack(err)
		}
	}
	if rc.t.Console != nil {
		if err := rc.addBinding("log", logFunc(rc.t.Console)); err != nil {
			return starcon.WithStack(err)
		}
	}
	return nil
}

var ErrTimeout = fmt.Errorf("timeout")

type result struct {
	value *v8go.Value
	err   error
}

func (rc *RunContext) withTimeout(_ context.Context, f func() (*v8go.Value, error), timeout time.Duration) (*v8go.Value, error) {
	results := make(chan result, 1)
	go func() {
		val, err := f()
		results <- result{value: val, err: err}
	}()

	select {
	case res := <-results:
		return res.value, starcon.WithStack(res.err)
	case <-time.After(timeout):
		rc.m.iso.TerminateExecution()
		<-results
		return nil, starcon.WithStack(ErrTimeout)
	}
}

// Run executes the target and returns its final value rendered as JSON.
// Each run gets a fresh v8 context, so scripts can't leak globals into
// each other.
func (t Target) Run(ctx context.Context, timeout time.Duration) (string, error) {
	m := <-machines
	defer func() { machines <- m }()

	vctx := v8go.NewContext(m.iso)
	defer vctx.Close()

	rc := &RunContext{
		m:    m,
		t:    &t,
		vctx: vctx,
	}

	if err := rc.prepare(); err != nil {
		return "", starcon.WithStack(err)
	}

	value, err := rc.withTimeout(ctx, func() (*v8go.Value, error) {
		return vctx.RunScript(t.Source, t.Origin)
	}, timeout)
	if err != nil {
		return "", starcon.WithStack(err)
	}
	if value == nil || value.IsNullOrUndefined() {
		return "", nil
	}
	rendered, err := v8go.JSONStringify(vctx, value)
	if err != nil {
		return "", starcon.WithStack(err)
	}
	return rendered, nil
}
