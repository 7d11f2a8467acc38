package identity

import (
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"github.com/clinicbook/clinicbook/internal/platform/auth"
)

var (
	ErrUsernameTaken      = errors.New("username is already taken")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrMissingFields      = errors.New("username and password are required")
)

// UserStore persists the user directory as one whole document.
type UserStore interface {
	Load(v interface{}) error
	Save(v interface{}) error
}

// Service owns the user directory. Signups append; logins mutate the visit
// counter. Every mutation rewrites the persisted store; a persistence
// failure is logged and swallowed.
type Service struct {
	mu     sync.RWMutex
	users  []*User
	store  UserStore
	logger zerolog.Logger
}

func NewService(st UserStore, logger zerolog.Logger) *Service {
	var doc userDocument
	if err := st.Load(&doc); err != nil {
		logger.Warn().Err(err).Msg("loading user directory")
	}
	return &Service{users: doc.Users, store: st, logger: logger}
}

// Signup registers a new account with a bcrypt-hashed password.
func (s *Service) Signup(username, email, phone, password string) (*User, error) {
	if username == "" || password == "" {
		return nil, ErrMissingFields
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.find(username) != nil {
		return nil, ErrUsernameTaken
	}

	user := &User{
		Username:     username,
		Email:        email,
		Phone:        phone,
		PasswordHash: hash,
		Appointments: []string{},
	}
	s.users = append(s.users, user)
	s.persist()

	s.logger.Info().Str("username", username).Msg("user registered")
	return user, nil
}

// Authenticate verifies credentials and, on success, increments the user's
// visit counter and persists it.
func (s *Service) Authenticate(username, password string) (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user := s.find(username)
	if user == nil || !auth.CheckPassword(user.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}

	user.TotalVisits++
	s.persist()

	return user, nil
}

// Get returns the account for username.
func (s *Service) Get(username string) (*User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user := s.find(username)
	return user, user != nil
}

// find runs the linear username scan. Callers hold the lock.
func (s *Service) find(username string) *User {
	for _, u := range s.users {
		if u.Username == username {
			return u
		}
	}
	return nil
}

// persist rewrites users.json. Callers hold the write lock.
func (s *Service) persist() {
	if err := s.store.Save(userDocument{Users: s.users}); err != nil {
		s.logger.Error().Err(err).Msg("persisting user directory")
	}
}
