package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"ardhi/contexts/identity-access/identity-service/domain/entities"
	domainerrors "ardhi/contexts/identity-access/identity-service/domain/errors"
	"ardhi/contexts/identity-access/identity-service/ports"
)

// Store is an in-memory user store for tests and local runs. It implements
// Repository, Clock and IDGenerator.
type Store struct {
	mu         sync.RWMutex
	users      map[string]entities.User
	byUsername map[string]string
}

func NewStore() *Store {
	return &Store{
		users:      make(map[string]entities.User),
		byUsername: make(map[string]string),
	}
}

func (s *Store) CreateUser(_ context.Context, user entities.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.byUsername[user.Username]; taken {
		return domainerrors.ErrUsernameTaken
	}
	s.users[user.UserID] = user
	s.byUsername[user.Username] = user.UserID
	return nil
}

func (s *Store) GetUser(_ context.Context, userID string) (entities.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.users[userID]
	if !ok {
		return entities.User{}, domainerrors.ErrUserNotFound
	}
	return user, nil
}

func (s *Store) GetUserByUsername(_ context.Context, username string) (entities.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	userID, ok := s.byUsername[username]
	if !ok {
		return entities.User{}, domainerrors.ErrUserNotFound
	}
	return s.users[userID], nil
}

func (s *Store) ListUsers(_ context.Context, filter ports.UserFilter) ([]entities.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	matched := make([]entities.User, 0)
	for _, user := range s.users {
		if filter.Registry != "" && user.Registry != filter.Registry {
			continue
		}
		if filter.Role != "" && user.Role != filter.Role {
			continue
		}
		matched = append(matched, user)
	}
	return matched, nil
}

func (s *Store) SetUserActive(_ context.Context, userID string, active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[userID]
	if !ok {
		return domainerrors.ErrUserNotFound
	}
	user.Active = active
	s.users[userID] = user
	return nil
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}
