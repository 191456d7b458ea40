// Package console implements the developer console: SSH sessions that
// authenticate against the account store and drive the live simulation
// through the engine manager.
package console

import (
	"fmt"
	"io"
	"log"
	"math/rand"
	"time"

	"github.com/gliderlabs/ssh"
	"github.com/pkg/errors"
	"golang.org/x/term"

	"github.com/arvefors/starcon"
	"github.com/arvefors/starcon/engine"
	"github.com/arvefors/starcon/storage"
)

// Console hosts all connected sessions and holds their shared
// dependencies.
type Console struct {
	manager       engine.Manager
	storage       *storage.Storage
	loginLimiter  *loginLimiter
	sessionByName *starcon.SyncMap[string, *Session]
}

// New creates a console bound to the given simulation manager and storage.
func New(manager engine.Manager, s *storage.Storage) *Console {
	return &Console{
		manager:       manager,
		storage:       s,
		loginLimiter:  newLoginLimiter(),
		sessionByName: starcon.NewSyncMap[string, *Session](),
	}
}

// Manager returns the simulation manager the console operates on.
func (c *Console) Manager() engine.Manager {
	return c.manager
}

// HandleSession runs one SSH session to completion.
func (c *Console) HandleSession(sess ssh.Session) {
	s := &Session{
		console: c,
		sess:    sess,
		term:    term.NewTerminal(sess, "> "),
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
		ctx:     storage.SetSessionID(sess.Context(), starcon.NextUniqueID()),
	}
	if err := s.Connect(); err != nil {
		if !errors.Is(err, io.EOF) {
			fmt.Fprintf(s.term, "InternalServerError: %v\n", err)
			log.Println(err)
			log.Println(starcon.StackTrace(err))
		}
	}
}
