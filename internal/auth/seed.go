package auth

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"labtrack/internal/logger"
	"labtrack/internal/models"
	"labtrack/internal/store"

	"gopkg.in/yaml.v3"
)

// UserCreator is the part of the user store used when seeding.
type UserCreator interface {
	UserSource
	Create(username, password, role string, permissions []string) error
}

type usersFile struct {
	Users []struct {
		Username    string   `yaml:"username"`
		Password    string   `yaml:"password"`
		Role        string   `yaml:"role"`
		Permissions []string `yaml:"permissions"`
	} `yaml:"users"`
}

// SeedFromFile creates the users listed in a YAML file. Existing usernames
// are left alone, so the file can stay in place across restarts.
func SeedFromFile(users UserCreator, path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("failed to read seed file: %w", err)
	}
	var uf usersFile
	if err := yaml.Unmarshal(data, &uf); err != nil {
		return 0, fmt.Errorf("failed to parse seed file: %w", err)
	}

	created := 0
	for _, u := range uf.Users {
		u.Username = strings.TrimSpace(u.Username)
		if u.Username == "" || u.Password == "" {
			continue
		}
		if _, err := users.Get(u.Username); err == nil {
			continue
		} else if !errors.Is(err, store.ErrNotFound) {
			return created, err
		}
		role := u.Role
		if role == "" {
			role = models.RoleUser
		}
		if err := users.Create(u.Username, u.Password, role, u.Permissions); err != nil {
			return created, fmt.Errorf("failed to seed user %s: %w", u.Username, err)
		}
		logger.Info("Seeded user", "username", u.Username, "role", role)
		created++
	}
	return created, nil
}
