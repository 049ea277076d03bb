package weatherpod

import (
	"context"
	"maps"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Key identifies a session. SessionID may be empty when creating a session,
// in which case the service generates one.
type Key struct {
	AppName   string
	UserID    string
	SessionID string
}

// Validate checks that every part of an existing session's key is set.
func (k Key) Validate() error {
	if err := k.validateOwner(); err != nil {
		return err
	}
	if k.SessionID == "" {
		return ErrSessionIDRequired
	}
	return nil
}

func (k Key) validateOwner() error {
	if k.AppName == "" {
		return ErrAppNameRequired
	}
	if k.UserID == "" {
		return ErrUserIDRequired
	}
	return nil
}

// withID fills an empty SessionID with a generated one.
func (k Key) withID() (Key, error) {
	if k.SessionID != "" {
		return k, nil
	}
	id, err := gonanoid.New()
	if err != nil {
		return k, err
	}
	k.SessionID = id
	return k, nil
}

// Session is one conversation between a user and an application. Events are
// ordered by the time they were appended.
type Session struct {
	AppName   string         `json:"appName"`
	UserID    string         `json:"userID"`
	ID        string         `json:"id"`
	State     map[string]any `json:"state"`
	Events    []*Event       `json:"events"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
}

func (s *Session) Key() Key {
	return Key{AppName: s.AppName, UserID: s.UserID, SessionID: s.ID}
}

// Clone copies the session so callers cannot mutate a stored value. Events
// are shared as they are never modified once appended.
func (s *Session) Clone() *Session {
	out := *s
	out.State = maps.Clone(s.State)
	if out.State == nil {
		out.State = map[string]any{}
	}
	out.Events = append([]*Event(nil), s.Events...)
	return &out
}

// apply records evt on the session the same way every backend does: partial
// events are dropped and the state delta is merged.
func (s *Session) apply(evt *Event) bool {
	if evt == nil || evt.Partial {
		return false
	}
	if s.State == nil {
		s.State = map[string]any{}
	}
	maps.Copy(s.State, evt.Actions.StateDelta)
	s.Events = append(s.Events, evt)
	s.UpdatedAt = evt.Timestamp
	return true
}

// SessionService stores sessions and their events.
type SessionService interface {
	// Create makes a new session. An empty key.SessionID is replaced with a
	// generated one. Creating a session that already exists fails with
	// ErrSessionExists.
	Create(ctx context.Context, key Key, state map[string]any) (*Session, error)
	// Get returns ErrSessionNotFound when the session does not exist.
	Get(ctx context.Context, key Key) (*Session, error)
	// List returns the user's sessions without their events.
	List(ctx context.Context, appName, userID string) ([]*Session, error)
	Delete(ctx context.Context, key Key) error
	// AppendEvent stores evt on the session. Partial events are not stored.
	AppendEvent(ctx context.Context, sess *Session, evt *Event) error
	Close() error
}
