// Package session holds the signed-in user's token and profile, persisted across restarts.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"sync"

	"decisiondash/internal/models"
)

// FileName is the store entry holding the persisted session
const FileName = "session.json"

// Store is the persistence the session needs
type Store interface {
	ReadFile(name string) ([]byte, error)
	WriteFile(name string, data []byte) error
	Remove(name string) error
}

type persisted struct {
	Token string       `json:"token"`
	User  *models.User `json:"user,omitempty"`
}

// Context is the current authentication state. It is safe for concurrent use.
type Context struct {
	store Store

	// persistMu orders Set and Clear so the file always matches the last change in memory
	persistMu sync.Mutex

	mu    sync.RWMutex
	token string
	user  *models.User
}

// New returns a session backed by store, restoring any persisted state.
// A nil store keeps the session in memory only.
func New(store Store) (*Context, error) {
	c := &Context{store: store}
	if store == nil {
		return c, nil
	}

	data, err := store.ReadFile(FileName)
	if errors.Is(err, fs.ErrNotExist) {
		return c, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading session: %w", err)
	}

	var p persisted
	if err := json.Unmarshal(data, &p); err != nil {
		log.Printf("Discarding unreadable session file: %v", err)
		if err := store.Remove(FileName); err != nil {
			return nil, fmt.Errorf("removing session: %w", err)
		}
		return c, nil
	}
	c.token = p.Token
	c.user = p.User
	return c, nil
}

// Token returns the bearer token; ok is false when signed out
func (c *Context) Token() (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token, c.token != ""
}

// User returns the signed-in profile, or nil
func (c *Context) User() *models.User {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.user == nil {
		return nil
	}
	u := *c.user
	return &u
}

// Authenticated reports whether a token is held
func (c *Context) Authenticated() bool {
	_, ok := c.Token()
	return ok
}

// Set records a successful login and persists it
func (c *Context) Set(token string, user models.User) error {
	if token == "" {
		return errors.New("empty session token")
	}

	c.persistMu.Lock()
	defer c.persistMu.Unlock()
	return c.setLocked(token, user)
}

// SetUser refreshes the cached profile without touching the token
func (c *Context) SetUser(user models.User) error {
	c.persistMu.Lock()
	defer c.persistMu.Unlock()

	token, ok := c.Token()
	if !ok {
		return errors.New("not signed in")
	}
	return c.setLocked(token, user)
}

// setLocked updates memory and the persisted copy. Caller holds c.persistMu.
func (c *Context) setLocked(token string, user models.User) error {
	c.mu.Lock()
	c.token = token
	c.user = &user
	c.mu.Unlock()

	if c.store == nil {
		return nil
	}
	data, err := json.Marshal(persisted{Token: token, User: &user})
	if err != nil {
		return fmt.Errorf("encoding session: %w", err)
	}
	if err := c.store.WriteFile(FileName, data); err != nil {
		return fmt.Errorf("saving session: %w", err)
	}
	return nil
}

// Clear signs out. Memory is cleared first so no request can use the token
// even if removing the persisted copy fails.
func (c *Context) Clear() error {
	c.persistMu.Lock()
	defer c.persistMu.Unlock()

	c.mu.Lock()
	c.token = ""
	c.user = nil
	c.mu.Unlock()

	if c.store == nil {
		return nil
	}
	if err := c.store.Remove(FileName); err != nil {
		return fmt.Errorf("removing session: %w", err)
	}
	return nil
}
