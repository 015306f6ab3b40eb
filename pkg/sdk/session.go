package sdk

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// SessionEvent identifies a session lifecycle notification.
type SessionEvent string

const (
	// EventAuthChanged fires after login and logout.
	EventAuthChanged SessionEvent = "auth-changed"
	// EventAuthInvalid fires when the service rejects the stored token.
	EventAuthInvalid SessionEvent = "auth-invalid"
)

// CredentialStore persists session credentials under a fixed key. A nil
// Credentials result with a nil error means no session is stored.
type CredentialStore interface {
	Load() (*Credentials, error)
	Save(*Credentials) error
	Clear() error
}

// MemoryStore keeps credentials in process memory. Used by tests and by
// panels that opt out of persistence.
type MemoryStore struct {
	mu    sync.Mutex
	creds *Credentials
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Load() (*Credentials, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.creds == nil {
		return nil, nil
	}
	copied := *s.creds
	return &copied, nil
}

func (s *MemoryStore) Save(creds *Credentials) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *creds
	s.creds = &copied
	return nil
}

func (s *MemoryStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creds = nil
	return nil
}

// FileStore persists credentials as JSON at a fixed path, creating
// parent directories on demand. The file is written with 0600 since it
// holds a bearer token.
type FileStore struct {
	path string
}

// NewFileStore creates a store at path. An empty path resolves to
// console-credentials.json under the user config directory.
func NewFileStore(path string) (*FileStore, error) {
	if path == "" {
		configDir, err := os.UserConfigDir()
		if err != nil {
			return nil, err
		}
		path = filepath.Join(configDir, "resumatch", "console-credentials.json")
	}
	return &FileStore{path: path}, nil
}

func (s *FileStore) Load() (*Credentials, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var creds Credentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return nil, err
	}
	return &creds, nil
}

func (s *FileStore) Save(creds *Credentials) error {
	data, err := json.MarshalIndent(creds, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0o600)
}

func (s *FileStore) Clear() error {
	err := os.Remove(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// loginResponse mirrors POST /api/login.
type loginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	User      Principal `json:"user"`
}

// AuthSession owns the stored credentials and the principal derived
// from them. A single mutex brackets every store access so overlapping
// operations observe consistent state.
type AuthSession struct {
	client *Client
	store  CredentialStore

	mu        sync.Mutex
	listeners map[int]func(SessionEvent)
	nextID    int
}

// NewAuthSession wires the session to the client: the session becomes
// the client's token provider and subscribes to its unauthorized
// notifications.
func NewAuthSession(client *Client, store CredentialStore) *AuthSession {
	s := &AuthSession{
		client:    client,
		store:     store,
		listeners: map[int]func(SessionEvent){},
	}
	client.SetTokenProvider(s.currentToken)
	client.SetAuthInvalidSink(s.invalidate)
	return s
}

// OnEvent registers a listener for session events. Returns an
// unsubscribe function.
func (s *AuthSession) OnEvent(fn func(SessionEvent)) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

// Login authenticates against POST /api/login and persists the session
// on success. Any prior session is cleared on failure so a rejected
// login never leaves stale credentials behind.
func (s *AuthSession) Login(ctx context.Context, email, password string) (*Principal, *APIError) {
	body := map[string]string{"email": email, "password": password}

	var resp loginResponse
	if apiErr := s.client.Post(ctx, "/api/login", body, &resp, WithoutAuth()); apiErr != nil {
		s.mu.Lock()
		s.store.Clear()
		s.mu.Unlock()
		return nil, apiErr
	}

	creds := &Credentials{
		Token:     resp.Token,
		ExpiresAt: resp.ExpiresAt,
		Principal: resp.User,
	}

	s.mu.Lock()
	err := s.store.Save(creds)
	s.mu.Unlock()
	if err != nil {
		return nil, &APIError{Kind: KindMalformed, Message: "persist session: " + err.Error()}
	}

	s.emit(EventAuthChanged)
	return &creds.Principal, nil
}

// Logout clears the stored session and notifies the service. The
// server call is best effort; the local session is gone regardless.
func (s *AuthSession) Logout(ctx context.Context) {
	s.client.Post(ctx, "/api/logout", nil, nil)

	s.mu.Lock()
	s.store.Clear()
	s.mu.Unlock()

	s.emit(EventAuthChanged)
}

// CurrentPrincipal returns the stored principal only while the token is
// unexpired by wall clock. An expired session is cleared on access so
// the panel never renders a principal without a valid token.
func (s *AuthSession) CurrentPrincipal() *Principal {
	s.mu.Lock()
	creds, err := s.store.Load()
	if err != nil || creds == nil {
		s.mu.Unlock()
		return nil
	}
	if creds.IsExpired() {
		s.store.Clear()
		s.mu.Unlock()
		s.emit(EventAuthInvalid)
		return nil
	}
	s.mu.Unlock()

	principal := creds.Principal
	return &principal
}

// Token returns the stored bearer token, or empty when no unexpired
// session exists.
func (s *AuthSession) Token() string {
	return s.currentToken()
}

func (s *AuthSession) currentToken() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	creds, err := s.store.Load()
	if err != nil || creds == nil || creds.IsExpired() {
		return ""
	}
	return creds.Token
}

// invalidate reacts to a 401 from the service: the stored session is
// cleared and listeners are told so guarded views re-evaluate.
func (s *AuthSession) invalidate() {
	s.mu.Lock()
	s.store.Clear()
	s.mu.Unlock()

	s.emit(EventAuthInvalid)
}

func (s *AuthSession) emit(event SessionEvent) {
	s.mu.Lock()
	listeners := make([]func(SessionEvent), 0, len(s.listeners))
	for _, fn := range s.listeners {
		listeners = append(listeners, fn)
	}
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(event)
	}
}
