package auth

import (
	"errors"

	"labtrack/internal/logger"
	"labtrack/internal/models"
	"labtrack/internal/store"

	"golang.org/x/crypto/bcrypt"
)

// UserSource looks accounts up by username.
type UserSource interface {
	Get(username string) (*models.User, error)
}

// Service answers the identity and access questions asked by the guards.
type Service struct {
	users UserSource
}

func NewService(users UserSource) *Service {
	return &Service{users: users}
}

// dummyHash keeps the cost of a lookup miss close to that of a wrong password.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("labtrack-dummy"), bcrypt.DefaultCost)

// VerifyCredentials reports whether username exists, is active and password
// matches its stored hash.
func (s *Service) VerifyCredentials(username, password string) bool {
	user, err := s.lookup(username)
	if err != nil || user == nil {
		bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
		return false
	}
	if !user.Active {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) == nil
}

// IsAdmin is true for the Admin account and for any user with the admin role.
func (s *Service) IsAdmin(username string) bool {
	if username == models.AdminUsername {
		return true
	}
	user, err := s.lookup(username)
	if err != nil || user == nil {
		return false
	}
	return user.Role == models.RoleAdmin
}

// HasPermission grants admins every section; other users need to be active
// and hold the section.
func (s *Service) HasPermission(username, section string) bool {
	if s.IsAdmin(username) {
		return true
	}
	user, err := s.lookup(username)
	if err != nil || user == nil {
		return false
	}
	return user.Active && user.HasSection(section)
}

// IsActive reports whether username exists and may still log in.
func (s *Service) IsActive(username string) bool {
	user, err := s.lookup(username)
	if err != nil || user == nil {
		return false
	}
	return user.Active
}

// Sections lists what username may open, in the fixed section order.
func (s *Service) Sections(username string) []string {
	out := []string{}
	for _, section := range models.DefaultSections {
		if s.HasPermission(username, section) {
			out = append(out, section)
		}
	}
	return out
}

func (s *Service) lookup(username string) (*models.User, error) {
	if username == "" {
		return nil, nil
	}
	user, err := s.users.Get(username)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			logger.Error("Failed to load user", "username", username, "error", err)
		}
		return nil, err
	}
	return user, nil
}
