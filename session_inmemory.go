package weatherpod

import (
	"context"
	"maps"
	"sort"
	"sync"
	"time"
)

var _ SessionService = &InMemorySessionService{}

// InMemorySessionService keeps sessions in process memory. It is safe for
// concurrent use.
type InMemorySessionService struct {
	mu       sync.RWMutex
	sessions map[Key]*Session
}

func NewInMemorySessionService() *InMemorySessionService {
	return &InMemorySessionService{sessions: make(map[Key]*Session)}
}

func (s *InMemorySessionService) Create(ctx context.Context, key Key, state map[string]any) (*Session, error) {
	if err := key.validateOwner(); err != nil {
		return nil, err
	}
	key, err := key.withID()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[key]; ok {
		return nil, ErrSessionExists
	}
	now := time.Now()
	sess := &Session{
		AppName:   key.AppName,
		UserID:    key.UserID,
		ID:        key.SessionID,
		State:     maps.Clone(state),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if sess.State == nil {
		sess.State = map[string]any{}
	}
	s.sessions[key] = sess
	return sess.Clone(), nil
}

func (s *InMemorySessionService) Get(ctx context.Context, key Key) (*Session, error) {
	if err := key.Validate(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[key]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return sess.Clone(), nil
}

func (s *InMemorySessionService) List(ctx context.Context, appName, userID string) ([]*Session, error) {
	if err := (Key{AppName: appName, UserID: userID}).validateOwner(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Session
	for key, sess := range s.sessions {
		if key.AppName != appName || key.UserID != userID {
			continue
		}
		c := sess.Clone()
		c.Events = nil
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *InMemorySessionService) Delete(ctx context.Context, key Key) error {
	if err := key.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[key]; !ok {
		return ErrSessionNotFound
	}
	delete(s.sessions, key)
	return nil
}

// AppendEvent stores evt and mirrors it on sess so the caller's copy stays
// current.
func (s *InMemorySessionService) AppendEvent(ctx context.Context, sess *Session, evt *Event) error {
	if evt == nil || evt.Partial {
		return nil
	}
	key := sess.Key()
	if err := key.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.sessions[key]
	if !ok {
		return ErrSessionNotFound
	}
	stored.apply(evt)
	sess.apply(evt)
	return nil
}

func (s *InMemorySessionService) Close() error {
	return nil
}
