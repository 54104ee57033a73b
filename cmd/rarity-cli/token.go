package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"golang.org/x/term"
)

// tokenSource resolves the RPC bearer token from the environment or, failing
// that, by prompting on the terminal. The first result is cached.
type tokenSource struct {
	envVar  string
	prompt  io.Writer
	fd      int
	isTerm  func(fd int) bool
	readPwd func(fd int) ([]byte, error)

	once  sync.Once
	value string
	err   error
}

func newTokenSource(envVar string) *tokenSource {
	return &tokenSource{
		envVar:  envVar,
		prompt:  os.Stderr,
		fd:      int(os.Stdin.Fd()),
		isTerm:  term.IsTerminal,
		readPwd: term.ReadPassword,
	}
}

func (s *tokenSource) Get() (string, error) {
	s.once.Do(func() {
		if value := strings.TrimSpace(os.Getenv(s.envVar)); value != "" {
			s.value = value
			return
		}
		if !s.isTerm(s.fd) {
			s.err = fmt.Errorf("privileged RPC call requires %s to be set", s.envVar)
			return
		}
		fmt.Fprint(s.prompt, "Enter RPC token: ")
		raw, err := s.readPwd(s.fd)
		fmt.Fprintln(s.prompt)
		if err != nil {
			s.err = fmt.Errorf("failed to read RPC token: %w", err)
			return
		}
		token := strings.TrimSpace(string(raw))
		if token == "" {
			s.err = errors.New("RPC token cannot be empty")
			return
		}
		s.value = token
	})
	return s.value, s.err
}
