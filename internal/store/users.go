package store

import (
	"fmt"
	"strings"

	"labtrack/internal/logger"
	"labtrack/internal/models"

	"golang.org/x/crypto/bcrypt"
)

const usersDocument = "users"

var usersLayout = layout{name: usersDocument}

// UserStore keeps lab accounts keyed by username. The document is seeded
// with the Admin account on first access.
type UserStore struct {
	backend       Backend
	adminPassword string
	hashCost      int
}

func NewUserStore(b Backend, adminPassword string) *UserStore {
	if adminPassword == "" {
		adminPassword = "admin"
	}
	return &UserStore{
		backend:       b,
		adminPassword: adminPassword,
		hashCost:      bcrypt.DefaultCost,
	}
}

// SetHashCost changes the bcrypt cost for passwords hashed from now on.
func (s *UserStore) SetHashCost(cost int) {
	s.hashCost = cost
}

func (s *UserStore) seedAdmin() []models.User {
	hash, err := bcrypt.GenerateFromPassword([]byte(s.adminPassword), s.hashCost)
	if err != nil {
		logger.Error("Failed to hash Admin password", "error", err)
		return nil
	}
	logger.Info("Seeded Admin account", "username", models.AdminUsername)
	return []models.User{{
		Username:     models.AdminUsername,
		PasswordHash: string(hash),
		Role:         models.RoleAdmin,
		Permissions:  append([]string(nil), models.DefaultSections...),
		Active:       true,
	}}
}

func (s *UserStore) load() (document[models.User], error) {
	return readDocument(s.backend, usersLayout, s.seedAdmin)
}

func (s *UserStore) save(doc document[models.User]) error {
	return writeDocument(s.backend, usersLayout, doc)
}

func (s *UserStore) List() ([]models.User, error) {
	doc, err := s.load()
	if err != nil {
		return nil, err
	}
	return doc.records, nil
}

func (s *UserStore) Get(username string) (*models.User, error) {
	doc, err := s.load()
	if err != nil {
		return nil, err
	}
	for _, u := range doc.records {
		if u.Username == username {
			user := u
			return &user, nil
		}
	}
	return nil, ErrNotFound
}

// Create adds an active user. Admins always receive every section; unknown
// roles fall back to the plain user role.
func (s *UserStore) Create(username, password, role string, permissions []string) error {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return ErrInvalidUser
	}
	if role != models.RoleAdmin {
		role = models.RoleUser
	}
	if role == models.RoleAdmin {
		permissions = models.DefaultSections
	}

	doc, err := s.load()
	if err != nil {
		return err
	}
	for _, u := range doc.records {
		if u.Username == username {
			return ErrUserExists
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.hashCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	doc.records = append(doc.records, models.User{
		Username:     username,
		PasswordHash: string(hash),
		Role:         role,
		Permissions:  knownSections(permissions),
		Active:       true,
	})
	return s.save(doc)
}

// Delete removes a user. The Admin account is protected.
func (s *UserStore) Delete(username string) (bool, error) {
	if username == models.AdminUsername {
		return false, ErrProtectedUser
	}
	doc, err := s.load()
	if err != nil {
		return false, err
	}
	kept := make([]models.User, 0, len(doc.records))
	for _, u := range doc.records {
		if u.Username != username {
			kept = append(kept, u)
		}
	}
	if len(kept) == len(doc.records) {
		return false, nil
	}
	doc.records = kept
	return true, s.save(doc)
}

// SetActive enables or disables a login. Admin cannot be deactivated.
func (s *UserStore) SetActive(username string, active bool) error {
	if username == models.AdminUsername && !active {
		return ErrProtectedUser
	}
	return s.mutate(username, func(u *models.User) error {
		u.Active = active
		return nil
	})
}

func (s *UserStore) ChangePassword(username, password string) error {
	if password == "" {
		return ErrInvalidUser
	}
	return s.mutate(username, func(u *models.User) error {
		hash, err := bcrypt.GenerateFromPassword([]byte(password), s.hashCost)
		if err != nil {
			return fmt.Errorf("failed to hash password: %w", err)
		}
		u.PasswordHash = string(hash)
		return nil
	})
}

func (s *UserStore) mutate(username string, fn func(*models.User) error) error {
	doc, err := s.load()
	if err != nil {
		return err
	}
	for i := range doc.records {
		if doc.records[i].Username == username {
			if err := fn(&doc.records[i]); err != nil {
				return err
			}
			return s.save(doc)
		}
	}
	return ErrNotFound
}

func knownSections(permissions []string) []string {
	out := []string{}
	seen := make(map[string]bool)
	for _, p := range permissions {
		p = strings.TrimSpace(p)
		if seen[p] {
			continue
		}
		for _, section := range models.DefaultSections {
			if p == section {
				out = append(out, p)
				seen[p] = true
				break
			}
		}
	}
	return out
}
