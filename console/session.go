package console

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"os"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/gliderlabs/ssh"
	"github.com/pkg/errors"
	"golang.org/x/term"

	"github.com/arvefors/starcon"
	"github.com/arvefors/starcon/lang"
	"github.com/arvefors/starcon/storage"
)

var (
	ErrOperationAborted = fmt.Errorf("operation aborted")

	// errQuit makes Process return cleanly when the user quits.
	errQuit = fmt.Errorf("quit")

	whitespacePattern = regexp.MustCompile(`\s+`)
)

// Session is one connected console user.
type Session struct {
	console *Console
	sess    ssh.Session
	term    *term.Terminal
	user    *storage.User
	wiz     bool
	rng     *rand.Rand
	ctx     context.Context // Derived from sess.Context(), updated with session ID and authenticated user
}

func (s *Session) remoteAddr() string {
	if s.sess == nil {
		return "local"
	}
	return s.sess.RemoteAddr().String()
}

func (s *Session) SelectExec(options map[string]func() error) error {
	commandNames := make(sort.StringSlice, 0, len(options))
	for name := range options {
		commandNames = append(commandNames, name)
	}
	sort.Sort(commandNames)
	prompt := fmt.Sprintf("%s\n", lang.Enumerator{Pattern: "[%s]", Operator: "or"}.Do(commandNames...))
	for {
		fmt.Fprint(s.term, prompt)
		line, err := s.term.ReadLine()
		if err != nil {
			return starcon.WithStack(err)
		}
		if cmd, found := options[line]; found {
			if err := cmd(); err != nil {
				return starcon.WithStack(err)
			}
			break
		}
	}
	return nil
}

func (s *Session) SelectReturn(prompt string, options []string) (string, error) {
	for {
		fmt.Fprintf(s.term, "%s [%s]\n", prompt, strings.Join(options, "/"))
		line, err := s.term.ReadLine()
		if err != nil {
			return "", starcon.WithStack(err)
		}
		for _, option := range options {
			if strings.EqualFold(line, option) {
				return option, nil
			}
		}
	}
}

// command is one console command: a set of names and a handler getting the
// raw input line.
type command struct {
	names map[string]bool
	f     func(*Session, string) error
}

type commands []command

func (c commands) attempt(s *Session, name string, line string) (bool, error) {
	for _, cmd := range c {
		if cmd.names[name] {
			if err := cmd.f(s, line); err != nil {
				return true, starcon.WithStack(err)
			}
			return true, nil
		}
	}
	return false, nil
}

func m(s ...string) map[string]bool {
	res := map[string]bool{}
	for _, p := range s {
		res[p] = true
	}
	return res
}

// Connect greets, authenticates and then processes commands until the
// connection dies.
func (s *Session) Connect() error {
	fmt.Fprint(s.term, "Welcome to the simulation console!\n\n")
	sel := func() error {
		return s.SelectExec(map[string]func() error{
			"login user":  s.loginUser,
			"create user": s.createUser,
		})
	}
	var err error
	for err = sel(); errors.Is(err, ErrOperationAborted); err = sel() {
	}
	if err != nil {
		return starcon.WithStack(err)
	}
	return s.Process()
}

// Process dispatches command lines until the user quits or the connection
// dies.
func (s *Session) Process() error {
	if s.user == nil {
		return errors.New("can't process without user")
	}
	s.wiz = s.user.Wizard

	s.console.sessionByName.Set(s.user.Name, s)
	defer func() {
		s.console.sessionByName.Del(s.user.Name)
		s.console.storage.AuditLog(s.ctx, "SESSION_END", storage.AuditSessionEnd{
			User: storage.Ref(s.user.Id, s.user.Name),
		})
	}()

	wiz := s.wizCommands()
	basic := s.basicCommands()

	for {
		line, err := s.term.ReadLine()
		if err != nil {
			return starcon.WithStack(err)
		}
		words := whitespacePattern.Split(strings.TrimSpace(line), -1)
		if len(words) == 0 || words[0] == "" {
			continue
		}
		if s.wiz {
			if found, err := wiz.attempt(s, words[0], line); found {
				// Every wizard command ends up in the audit log, succeeded
				// or not.
				s.console.storage.AuditLog(s.ctx, "WIZARD_COMMAND", storage.AuditWizardCommand{
					User: storage.Ref(s.user.Id, s.user.Name),
					Line: line,
				})
				if err != nil {
					fmt.Fprintln(s.term, err)
				}
				continue
			}
		}
		found, err := basic.attempt(s, words[0], line)
		if errors.Is(err, errQuit) {
			return nil
		} else if err != nil {
			fmt.Fprintln(s.term, err)
		} else if !found {
			fmt.Fprintf(s.term, "Unknown command: %q\n", words[0])
		}
	}
}

func (s *Session) loginUser() error {
	fmt.Fprint(s.term, "** Login user **\n\n")
	for s.user == nil {
		fmt.Fprintln(s.term, "Enter username or [abort]:")
		username, err := s.term.ReadLine()
		if err != nil {
			return err
		}
		if username == "abort" {
			return starcon.WithStack(ErrOperationAborted)
		}

		// Rate limit login attempts per username (only after failed attempts).
		if wait := s.console.loginLimiter.wait(username); wait > 0 {
			fmt.Fprintf(s.term, "Please wait %v before trying again.\n", wait.Round(time.Second))
			time.Sleep(wait)
		}

		fmt.Fprint(s.term, "Enter password or [abort]:\n")
		password, err := s.term.ReadPassword("> ")
		if err != nil {
			return err
		}
		if password == "abort" {
			return starcon.WithStack(ErrOperationAborted)
		}

		user, err := s.console.storage.LoadUser(s.ctx, username)
		if errors.Is(err, os.ErrNotExist) {
			// Unknown user gets the same treatment as a wrong password, to
			// prevent timing based enumeration.
			s.console.loginLimiter.recordFailure(username)
			s.console.storage.AuditLog(s.ctx, "LOGIN_FAILED", storage.AuditLoginFailed{
				User:   storage.Ref(0, username),
				Remote: s.remoteAddr(),
			})
			fmt.Fprintln(s.term, "Invalid credentials!")
			continue
		} else if err != nil {
			return starcon.WithStack(err)
		}

		if !verifyPassword(password, user.PasswordHash) {
			s.console.loginLimiter.recordFailure(user.Name)
			s.console.storage.AuditLog(s.ctx, "LOGIN_FAILED", storage.AuditLoginFailed{
				User:   storage.Ref(user.Id, user.Name),
				Remote: s.remoteAddr(),
			})
			fmt.Fprintln(s.term, "Invalid credentials!")
		} else {
			s.console.loginLimiter.clearFailure(user.Name)
			user.SetLastLogin(time.Now().UTC())
			if err := s.console.storage.StoreUser(s.ctx, user, true); err != nil {
				// Don't fail the login over a bookkeeping update.
				log.Printf("Failed to update last login for user %s: %v", user.Name, err)
			}
			s.user = user
		}
	}
	s.ctx = storage.AuthenticateUser(s.ctx, s.user)
	s.console.storage.AuditLog(s.ctx, "USER_LOGIN", storage.AuditUserLogin{
		User:   storage.Ref(s.user.Id, s.user.Name),
		Remote: s.remoteAddr(),
	})
	fmt.Fprintf(s.term, "Welcome back, %v!\n\n", s.user.Name)
	return nil
}

func (s *Session) createUser() error {
	fmt.Fprint(s.term, "** Create user **\n\n")
	var user *storage.User
	for user == nil {
		fmt.Fprint(s.term, "Enter new username or [abort]:\n")
		username, err := s.term.ReadLine()
		if err != nil {
			return err
		}
		if username == "abort" {
			return starcon.WithStack(ErrOperationAborted)
		}
		if err := validateUsername(username); err != nil {
			fmt.Fprintln(s.term, err.Error())
			continue
		}
		if _, err = s.console.storage.LoadUser(s.ctx, username); errors.Is(err, os.ErrNotExist) {
			user = &storage.User{
				Name:   username,
				Player: -1,
			}
		} else if err == nil {
			fmt.Fprintln(s.term, "Username already exists!")
		} else {
			return starcon.WithStack(err)
		}
	}
	for s.user == nil {
		fmt.Fprintln(s.term, "Enter new password:")
		password, err := s.term.ReadPassword("> ")
		if err != nil {
			return err
		}
		if password == "abort" {
			fmt.Fprintln(s.term, "Password cannot be 'abort' (reserved keyword).")
			continue
		}
		fmt.Fprintln(s.term, "Repeat new password:")
		verification, err := s.term.ReadPassword("> ")
		if err != nil {
			return err
		}
		if password == verification {
			selection, err := s.SelectReturn(fmt.Sprintf("Create user %q with provided password?", user.Name), []string{"y", "n", "abort"})
			if err != nil {
				return err
			}
			switch selection {
			case "abort":
				return starcon.WithStack(ErrOperationAborted)
			case "y":
				hash, err := hashPassword(password)
				if err != nil {
					return starcon.WithStack(err)
				}
				user.PasswordHash = hash
				s.user = user
			}
		} else {
			fmt.Fprintln(s.term, "Passwords don't match!")
		}
	}

	// The first account on a fresh console becomes the owner, so there is
	// always someone who can grant wizard privileges.
	if count, err := s.console.storage.CountUsers(s.ctx); err != nil {
		return starcon.WithStack(err)
	} else if count == 0 {
		s.user.Owner = true
		s.user.Wizard = true
		fmt.Fprintln(s.term, "First account: granting owner and wizard privileges.")
	}

	s.user.SetLastLogin(time.Now().UTC())
	if err := s.console.storage.StoreUser(s.ctx, s.user, false); err != nil {
		return starcon.WithStack(err)
	}
	s.ctx = storage.AuthenticateUser(s.ctx, s.user)
	s.console.storage.AuditLog(s.ctx, "USER_CREATE", storage.AuditUserCreate{
		User:   storage.Ref(s.user.Id, s.user.Name),
		Remote: s.remoteAddr(),
	})
	fmt.Fprintf(s.term, "Welcome %s!\n\n", s.user.Name)
	return nil
}
