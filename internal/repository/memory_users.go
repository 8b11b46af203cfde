package repository

import (
	"huddle-backend/internal/models"
	"time"

	"github.com/google/uuid"
)

func (s *MemoryStore) GetUserByEmail(email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if u.Email == email {
			user := *u
			return &user, nil
		}
	}
	return nil, nil
}

func (s *MemoryStore) GetUserByID(id string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, nil
	}
	user := *u
	return &user, nil
}

func (s *MemoryStore) CreateUser(user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Email == user.Email {
			return ErrEmailTaken
		}
	}
	stored := *user
	s.users[user.ID] = &stored
	return nil
}

// CreateOrUpdateUser matches on email and provider like UserRepository does
func (s *MemoryStore) CreateOrUpdateUser(user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user.UpdatedAt = time.Now()
	for id, u := range s.users {
		if u.Email == user.Email && u.Provider == user.Provider {
			user.ID = id
			user.CreatedAt = u.CreatedAt
			stored := *user
			s.users[id] = &stored
			return nil
		}
	}

	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	user.CreatedAt = user.UpdatedAt
	stored := *user
	s.users[user.ID] = &stored
	return nil
}

func (s *MemoryStore) UpdateRefreshToken(userID, refreshToken string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if u, ok := s.users[userID]; ok {
		u.RefreshToken = refreshToken
	}
	return nil
}

func (s *MemoryStore) RevokeRefreshToken(userID, token string, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.revoked[token] = models.RevokedToken{
		ID:        uuid.New().String(),
		Token:     token,
		UserID:    userID,
		ExpiresAt: expiresAt,
		CreatedAt: time.Now(),
	}
	return nil
}

func (s *MemoryStore) IsRefreshTokenRevoked(token string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rt, ok := s.revoked[token]
	return ok && !rt.Expired(time.Now())
}

func (s *MemoryStore) PurgeExpiredRevocations() (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var purged int64
	now := time.Now()
	for token, rt := range s.revoked {
		if rt.Expired(now) {
			delete(s.revoked, token)
			purged++
		}
	}
	return purged, nil
}
