// Package auth holds the signed-in user and bearer token for the client.
package auth

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/debemdeboas/inkwell/internal/model"
)

var authLogger zerolog.Logger

func SetLogger(l zerolog.Logger) {
	authLogger = l
}

const (
	KeyToken = "token"
	KeyUser  = "user"
)

var ErrNoUser = errors.New("no user signed in")

// Store is the single source of the bearer token. Requests read the token
// when they are built; only login, logout and profile updates write it.
type Store struct {
	mu      sync.RWMutex
	backend Backend
	token   string
	user    *model.User
}

func NewStore(b Backend) *Store {
	if b == nil {
		b = NewMemoryBackend()
	}
	return &Store{backend: b}
}

// Load reads the persisted snapshot. A corrupt user entry is discarded.
func (s *Store) Load() error {
	token, _, err := s.backend.Load(KeyToken)
	if err != nil {
		return err
	}
	raw, ok, err := s.backend.Load(KeyUser)
	if err != nil {
		return err
	}

	var user *model.User
	if ok && raw != "" {
		var u model.User
		if err := json.Unmarshal([]byte(raw), &u); err != nil {
			authLogger.Warn().Err(err).Msg("Discarding unreadable stored user")
		} else {
			u.Normalize()
			user = &u
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	s.user = user
	return nil
}

func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// User returns a copy of the signed-in user, or nil.
func (s *Store) User() *model.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

func (s *Store) IsAuthenticated() bool {
	return s.Token() != ""
}

// Expiry reports when the token expires if it is a JWT carrying an exp claim.
// The signature is not checked; only the server can do that.
func (s *Store) Expiry() (time.Time, bool) {
	token := s.Token()
	if token == "" {
		return time.Time{}, false
	}
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}

// UseToken overrides the token for this process without persisting it.
func (s *Store) UseToken(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
}

func (s *Store) Login(user model.User, token string) error {
	if token == "" {
		return errors.New("login without token")
	}
	user.Normalize()
	raw, err := json.Marshal(user)
	if err != nil {
		return errors.Wrap(err, "encode user")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.backend.Save(KeyToken, token); err != nil {
		return err
	}
	if err := s.backend.Save(KeyUser, string(raw)); err != nil {
		return err
	}
	s.token = token
	s.user = &user
	authLogger.Info().Str("user_id", string(user.ID)).Msg("Logged in")
	return nil
}

func (s *Store) Logout() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	s.user = nil
	if err := s.backend.Delete(KeyToken); err != nil {
		return err
	}
	return s.backend.Delete(KeyUser)
}

// UpdateUser applies patch to the signed-in user and persists the result.
func (s *Store) UpdateUser(patch model.UserPatch) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return model.User{}, ErrNoUser
	}
	updated := patch.Apply(*s.user)
	if err := s.saveUser(updated); err != nil {
		return model.User{}, err
	}
	return updated, nil
}

// SetUser replaces the signed-in user with the server's copy.
func (s *Store) SetUser(user model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return ErrNoUser
	}
	user.Normalize()
	return s.saveUser(user)
}

func (s *Store) saveUser(user model.User) error {
	raw, err := json.Marshal(user)
	if err != nil {
		return errors.Wrap(err, "encode user")
	}
	if err := s.backend.Save(KeyUser, string(raw)); err != nil {
		return err
	}
	s.user = &user
	return nil
}
