// Package session owns the authentication token for the lifetime of the
// process and persists it so a later run starts logged in.
package session

import (
	"errors"
	"fmt"
	"sync"
)

// Store holds the current bearer token. Views read it; only Login and
// Logout mutate it.
type Store struct {
	storage Storage

	mu        sync.RWMutex
	token     string
	listeners []func(token string)
}

// Open creates a store and restores any previously persisted token.
func Open(storage Storage) (*Store, error) {
	if storage == nil {
		return nil, errors.New("session storage is nil")
	}
	tok, err := storage.Load()
	if err != nil {
		return nil, fmt.Errorf("restore session: %w", err)
	}
	return &Store{storage: storage, token: tok}, nil
}

// Token returns the current token, or "" when logged out.
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

func (s *Store) Authenticated() bool { return s.Token() != "" }

// Login persists token and then makes it current.
func (s *Store) Login(token string) error {
	if token == "" {
		return errors.New("empty token")
	}
	if err := s.storage.Save(token); err != nil {
		return err
	}
	s.set(token)
	return nil
}

// Logout removes the persisted token and then clears it.
func (s *Store) Logout() error {
	if err := s.storage.Remove(); err != nil {
		return err
	}
	s.set("")
	return nil
}

// Subscribe registers fn to run after every Login/Logout with the new token.
func (s *Store) Subscribe(fn func(token string)) {
	s.mu.Lock()
	s.listeners = append(s.listeners, fn)
	s.mu.Unlock()
}

func (s *Store) set(token string) {
	s.mu.Lock()
	s.token = token
	listeners := append([]func(string){}, s.listeners...)
	s.mu.Unlock()
	for _, fn := range listeners {
		fn(token)
	}
}
