package store

import (
	"errors"
	"testing"

	"labtrack/internal/models"

	"golang.org/x/crypto/bcrypt"
)

func newTestUserStore(t *testing.T) *UserStore {
	t.Helper()
	users := NewUserStore(NewMemoryBackend(), "admin")
	users.SetHashCost(bcrypt.MinCost)
	return users
}

func TestAdminSeededOnFirstAccess(t *testing.T) {
	users := newTestUserStore(t)

	admin, err := users.Get(models.AdminUsername)
	if err != nil {
		t.Fatal("Expected Admin to be seeded:", err)
	}
	if admin.Role != models.RoleAdmin || !admin.Active {
		t.Errorf("Unexpected Admin account: %+v", admin)
	}
	if len(admin.Permissions) != len(models.DefaultSections) {
		t.Errorf("Expected Admin to hold every section, got %v", admin.Permissions)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte("admin")); err != nil {
		t.Error("Seeded Admin password does not match")
	}
}

func TestCreateUser(t *testing.T) {
	users := newTestUserStore(t)

	err := users.Create("lan", "secret", "user", []string{models.SectionReceiving, "bogus", models.SectionReceiving})
	if err != nil {
		t.Fatal("Failed to create user:", err)
	}
	u, _ := users.Get("lan")
	if u.Role != models.RoleUser || !u.Active {
		t.Errorf("Unexpected user: %+v", u)
	}
	if len(u.Permissions) != 1 || u.Permissions[0] != models.SectionReceiving {
		t.Errorf("Expected permissions [receiving], got %v", u.Permissions)
	}

	if err := users.Create("lan", "other", "user", nil); !errors.Is(err, ErrUserExists) {
		t.Errorf("Expected ErrUserExists, got %v", err)
	}
	if err := users.Create(" ", "x", "user", nil); !errors.Is(err, ErrInvalidUser) {
		t.Errorf("Expected ErrInvalidUser for blank username, got %v", err)
	}
	if err := users.Create("minh", "", "user", nil); !errors.Is(err, ErrInvalidUser) {
		t.Errorf("Expected ErrInvalidUser for blank password, got %v", err)
	}
}

func TestCreateAdminGetsAllSections(t *testing.T) {
	users := newTestUserStore(t)
	if err := users.Create("boss", "pw", models.RoleAdmin, nil); err != nil {
		t.Fatal("Failed to create admin:", err)
	}
	u, _ := users.Get("boss")
	if len(u.Permissions) != len(models.DefaultSections) {
		t.Errorf("Expected all sections for admin, got %v", u.Permissions)
	}

	users.Create("odd", "pw", "superuser", nil)
	odd, _ := users.Get("odd")
	if odd.Role != models.RoleUser {
		t.Errorf("Expected unknown role to become user, got %s", odd.Role)
	}
}

func TestAdminIsProtected(t *testing.T) {
	users := newTestUserStore(t)

	if _, err := users.Delete(models.AdminUsername); !errors.Is(err, ErrProtectedUser) {
		t.Errorf("Expected ErrProtectedUser on delete, got %v", err)
	}
	if err := users.SetActive(models.AdminUsername, false); !errors.Is(err, ErrProtectedUser) {
		t.Errorf("Expected ErrProtectedUser on deactivate, got %v", err)
	}
	if _, err := users.Get(models.AdminUsername); err != nil {
		t.Error("Admin should still exist:", err)
	}
}

func TestDeleteAndDeactivateUser(t *testing.T) {
	users := newTestUserStore(t)
	users.Create("lan", "pw", "user", nil)

	if err := users.SetActive("lan", false); err != nil {
		t.Fatal("Failed to deactivate:", err)
	}
	u, _ := users.Get("lan")
	if u.Active {
		t.Error("Expected user to be inactive")
	}

	ok, err := users.Delete("lan")
	if err != nil || !ok {
		t.Fatalf("Expected delete to succeed, got %v (%v)", ok, err)
	}
	if _, err := users.Get("lan"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound after delete, got %v", err)
	}
	if ok, _ := users.Delete("lan"); ok {
		t.Error("Expected second delete to report false")
	}
	if err := users.SetActive("ghost", true); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound for unknown user, got %v", err)
	}
}

func TestChangePassword(t *testing.T) {
	users := newTestUserStore(t)
	users.Create("lan", "old", "user", nil)

	if err := users.ChangePassword("lan", "new"); err != nil {
		t.Fatal("Failed to change password:", err)
	}
	u, _ := users.Get("lan")
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("new")) != nil {
		t.Error("New password does not verify")
	}
	if err := users.ChangePassword("lan", ""); !errors.Is(err, ErrInvalidUser) {
		t.Errorf("Expected ErrInvalidUser for empty password, got %v", err)
	}
}
