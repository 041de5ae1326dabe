package validate

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/multierr"
)

type State int

const (
	StateIdle State = iota
	StateAuthenticating
	StateReady
	StateValidating
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAuthenticating:
		return "authenticating"
	case StateReady:
		return "ready"
	case StateValidating:
		return "validating"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// allowed - допустимые переходы. В Failed можно перейти из любого
// незавершённого состояния, это проверяется отдельно.
var allowed = map[State][]State{
	StateIdle:           {StateAuthenticating, StateReady},
	StateAuthenticating: {StateReady},
	StateReady:          {StateValidating},
	StateValidating:     {StateDone},
}

// Authenticator выполняет вход: переиспользует storage state или
// проходит сценарий логина.
type Authenticator interface {
	Authenticate(ctx context.Context) error
}

type AuthenticatorFunc func(ctx context.Context) error

func (f AuthenticatorFunc) Authenticate(ctx context.Context) error { return f(ctx) }

// Session - автомат Idle -> Authenticating -> Ready -> Validating -> Done,
// из любого состояния возможен Failed. Каждый переход с ожиданием ограничен таймаутом.
type Session struct {
	mu          sync.Mutex
	state       State
	auth        Authenticator
	authTimeout time.Duration
	err         error
	history     []State
}

// NewSession: auth может быть nil, тогда сессия сразу переходит в Ready.
func NewSession(auth Authenticator, authTimeout time.Duration) *Session {
	if authTimeout <= 0 {
		authTimeout = 30 * time.Second
	}
	return &Session{
		state:       StateIdle,
		auth:        auth,
		authTimeout: authTimeout,
		history:     []State{StateIdle},
	}
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Err - причина перехода в Failed.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// History - пройденные состояния по порядку.
func (s *Session) History() []State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]State(nil), s.history...)
}

func (s *Session) transition(to State) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if to == StateFailed {
		if s.state == StateDone || s.state == StateFailed {
			return &TransitionError{From: s.state, To: to}
		}
		s.state = to
		s.history = append(s.history, to)
		return nil
	}
	for _, next := range allowed[s.state] {
		if next == to {
			s.state = to
			s.history = append(s.history, to)
			return nil
		}
	}
	return &TransitionError{From: s.state, To: to}
}

// Authenticate переводит сессию в Ready. Ошибка входа или таймаут дают *AuthError
// и состояние Failed.
func (s *Session) Authenticate(ctx context.Context) error {
	if s.auth == nil {
		return s.transition(StateReady)
	}
	if err := s.transition(StateAuthenticating); err != nil {
		return err
	}

	actx, cancel := context.WithTimeout(ctx, s.authTimeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- s.auth.Authenticate(actx)
	}()

	var err error
	select {
	case err = <-done:
	case <-actx.Done():
		err = actx.Err()
	}
	if err != nil {
		return s.Fail(&AuthError{State: StateAuthenticating, Err: err})
	}
	return s.transition(StateReady)
}

func (s *Session) BeginValidation() error {
	return s.transition(StateValidating)
}

func (s *Session) Finish() error {
	return s.transition(StateDone)
}

// Fail переводит сессию в Failed и возвращает err для удобства.
func (s *Session) Fail(err error) error {
	if terr := s.transition(StateFailed); terr != nil {
		return multierr.Append(err, terr)
	}
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
	return err
}
