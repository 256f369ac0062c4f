package auth

import (
	"context"
	"sync"
)

type EventKind int

const (
	SignedIn EventKind = iota
	SignedUp
	SignedOut
)

func (k EventKind) String() string {
	switch k {
	case SignedIn:
		return "signed_in"
	case SignedUp:
		return "signed_up"
	case SignedOut:
		return "signed_out"
	}
	return "unknown"
}

// Event reports a change of the session's identity. Identity is nil for
// SignedOut.
type Event struct {
	Kind     EventKind
	Identity *Identity
}

// Session is one caller's view of authentication: the current identity plus
// change notifications. Components receive it explicitly and subscribe for
// the span of their own lifetime.
type Session struct {
	svc *Service

	mu       sync.Mutex
	identity *Identity
	token    string
	nextID   int
	subs     map[int]func(Event)
}

// NewSession starts a guest session.
func NewSession(svc *Service) *Session {
	return &Session{svc: svc, subs: make(map[int]func(Event))}
}

// Resume restores a session from a token. An invalid token yields a guest
// session rather than an error.
func Resume(svc *Service, token string) *Session {
	sess := NewSession(svc)
	if token == "" {
		return sess
	}
	if identity, err := svc.ParseToken(token); err == nil {
		sess.identity = identity
		sess.token = token
	}
	return sess
}

// Identity returns the signed-in identity, or nil for a guest.
func (s *Session) Identity() *Identity {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.identity
}

func (s *Session) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

// Subscribe registers fn for identity changes and returns its unsubscribe func.
func (s *Session) Subscribe(fn func(Event)) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
		})
	}
}

func (s *Session) SignUp(ctx context.Context, email, password string, profile Profile) error {
	identity, token, err := s.svc.SignUp(ctx, email, password, profile)
	if err != nil {
		return err
	}
	s.set(identity, token, SignedUp)
	return nil
}

func (s *Session) SignIn(ctx context.Context, email, password string) error {
	identity, token, err := s.svc.SignIn(ctx, email, password)
	if err != nil {
		return err
	}
	s.set(identity, token, SignedIn)
	return nil
}

func (s *Session) SignOut() {
	s.set(nil, "", SignedOut)
}

// set swaps the identity and notifies subscribers synchronously, outside the
// lock so a subscriber may read the session.
func (s *Session) set(identity *Identity, token string, kind EventKind) {
	s.mu.Lock()
	s.identity = identity
	s.token = token
	subs := make([]func(Event), 0, len(s.subs))
	for id := 0; id < s.nextID; id++ {
		if fn, ok := s.subs[id]; ok {
			subs = append(subs, fn)
		}
	}
	s.mu.Unlock()

	ev := Event{Kind: kind, Identity: identity}
	for _, fn := range subs {
		fn(ev)
	}
}
