package starcon

import (
	"sort"
	"testing"

	"github.com/pkg/errors"
)

func TestWithStackIdempotent(t *testing.T) {
	if WithStack(nil) != nil {
		t.Error("WithStack(nil) != nil")
	}
	err := WithStack(errors.New("boom"))
	if WithStack(err) != err {
		t.Error("WithStack re-wrapped an error that already carries a stack")
	}
	if StackTrace(err) == "" {
		t.Error("no stack trace on a wrapped error")
	}
}

func TestNextUniqueID(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 1000; i++ {
		id := NextUniqueID()
		if seen[id] {
			t.Fatalf("duplicate id %q", id)
		}
		seen[id] = true
	}
}

func TestSyncMap(t *testing.T) {
	m := NewSyncMap[string, int]()
	m.Set("a", 1)
	m.Set("b", 2)
	if got := m.Get("a"); got != 1 {
		t.Errorf("Get(a) = %d, want 1", got)
	}
	if _, found := m.GetHas("c"); found {
		t.Error("GetHas found a missing key")
	}
	if m.Len() != 2 {
		t.Errorf("Len = %d, want 2", m.Len())
	}
	keys := sort.StringSlice{}
	for k := range m.Each() {
		keys = append(keys, k)
	}
	sort.Sort(keys)
	if len(keys) != 2 || keys[0] != "a" || keys[1] != "b" {
		t.Errorf("Each yielded %v", keys)
	}
	m.Del("a")
	if m.Has("a") {
		t.Error("Has(a) after Del")
	}
}
