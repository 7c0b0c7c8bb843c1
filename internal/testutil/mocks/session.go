package mocks

import (
	"context"
	"sync"
)

// Session is a mock implementation of session.Handle.
type Session struct {
	mu sync.RWMutex

	id    string
	attrs map[string]string

	// Error injection
	Errors struct {
		Attribute       error
		SetAttribute    error
		RemoveAttribute error
	}
}

// NewSession creates a new mock Session.
func NewSession(id string) *Session {
	return &Session{
		id:    id,
		attrs: make(map[string]string),
	}
}

func (m *Session) ID() string { return m.id }

func (m *Session) Attribute(ctx context.Context, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.Errors.Attribute != nil {
		return "", m.Errors.Attribute
	}
	return m.attrs[key], nil
}

func (m *Session) SetAttribute(ctx context.Context, key string, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Errors.SetAttribute != nil {
		return m.Errors.SetAttribute
	}
	m.attrs[key] = value
	return nil
}

func (m *Session) RemoveAttribute(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Errors.RemoveAttribute != nil {
		return m.Errors.RemoveAttribute
	}
	delete(m.attrs, key)
	return nil
}
