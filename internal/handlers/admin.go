package handlers

import (
	"database/sql"
	"errors"
	"net/http"
	"time"

	"labtrack/internal/database"
	"labtrack/internal/logger"
	"labtrack/internal/middleware"
	"labtrack/internal/models"
	"labtrack/internal/store"

	"github.com/gin-gonic/gin"
)

// userRow is one line of the user management table.
type userRow struct {
	models.User
	IsAdmin  bool
	LastSeen *time.Time
}

func handleUsers(c *gin.Context) {
	db := c.MustGet("db").(*sql.DB)
	stores := c.MustGet("stores").(*store.Stores)

	users, err := stores.Users.List()
	if err != nil {
		logger.Error("Failed to list users", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get users"})
		return
	}

	stats, err := database.GetAdminStats(db)
	if err != nil {
		logger.Error("Failed to get admin stats", "error", err)
		stats = &database.AdminStats{}
	}

	lastSeen, err := database.GetLastSeen(db)
	if err != nil {
		logger.Error("Failed to get user activity", "error", err)
		lastSeen = map[string]time.Time{}
	}

	rows := make([]userRow, 0, len(users))
	for _, u := range users {
		row := userRow{
			User:    u,
			IsAdmin: u.Username == models.AdminUsername || u.Role == models.RoleAdmin,
		}
		if seen, ok := lastSeen[u.Username]; ok {
			row.LastSeen = &seen
		}
		rows = append(rows, row)
	}

	renderPage(c, http.StatusOK, "users.html", "Users", gin.H{
		"Users":           rows,
		"Stats":           stats,
		"DefaultSections": models.DefaultSections,
	})
}

func handleCreateUser(c *gin.Context) {
	stores := c.MustGet("stores").(*store.Stores)

	username := c.PostForm("username")
	password := c.PostForm("password")
	role := c.DefaultPostForm("role", models.RoleUser)
	permissions := c.PostFormArray("permissions")

	if username == "" || password == "" {
		addFlash(c, flashWarning, "Please enter a username and password")
		redirect(c, "/users")
		return
	}

	err := stores.Users.Create(username, password, role, permissions)
	switch {
	case err == nil:
		logger.Info("User created",
			"username", username,
			"role", role,
			"by", c.GetString(middleware.UsernameKey))
		addFlash(c, flashSuccess, "User created")
	case errors.Is(err, store.ErrUserExists), errors.Is(err, store.ErrInvalidUser):
		addFlash(c, flashDanger, "Username already exists or is invalid")
	default:
		logger.Error("Failed to create user", "username", username, "error", err)
		addFlash(c, flashDanger, "Failed to create user")
	}
	redirect(c, "/users")
}

func handleDeleteUser(c *gin.Context) {
	db := c.MustGet("db").(*sql.DB)
	stores := c.MustGet("stores").(*store.Stores)
	username := c.Param("username")

	if username == c.GetString(middleware.UsernameKey) {
		addFlash(c, flashWarning, "You cannot delete your own account")
		redirect(c, "/users")
		return
	}

	deleted, err := stores.Users.Delete(username)
	if err != nil && !errors.Is(err, store.ErrProtectedUser) {
		logger.Error("Failed to delete user", "username", username, "error", err)
	}
	if err != nil || !deleted {
		addFlash(c, flashDanger, "This user cannot be deleted")
		redirect(c, "/users")
		return
	}

	if err := database.DeleteUserSessions(db, username); err != nil {
		logger.Error("Failed to delete sessions of removed user", "username", username, "error", err)
	}
	if err := database.ForgetUser(db, username); err != nil {
		logger.Error("Failed to forget user activity", "username", username, "error", err)
	}

	logger.Info("User deleted", "username", username, "by", c.GetString(middleware.UsernameKey))
	addFlash(c, flashSuccess, "User deleted")
	redirect(c, "/users")
}

func handleToggleUserActive(c *gin.Context) {
	db := c.MustGet("db").(*sql.DB)
	stores := c.MustGet("stores").(*store.Stores)
	username := c.Param("username")

	if username == c.GetString(middleware.UsernameKey) {
		addFlash(c, flashWarning, "You cannot deactivate your own account")
		redirect(c, "/users")
		return
	}

	user, err := stores.Users.Get(username)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			logger.Error("Failed to load user", "username", username, "error", err)
		}
		addFlash(c, flashDanger, "User not found")
		redirect(c, "/users")
		return
	}

	active := !user.Active
	if err := stores.Users.SetActive(username, active); err != nil {
		if errors.Is(err, store.ErrProtectedUser) {
			addFlash(c, flashDanger, "The Admin account cannot be deactivated")
		} else {
			logger.Error("Failed to toggle user", "username", username, "error", err)
			addFlash(c, flashDanger, "Failed to update user")
		}
		redirect(c, "/users")
		return
	}

	if !active {
		if err := database.DeleteUserSessions(db, username); err != nil {
			logger.Error("Failed to end sessions of deactivated user", "username", username, "error", err)
		}
		addFlashf(c, flashSuccess, "User %s deactivated", username)
	} else {
		addFlashf(c, flashSuccess, "User %s activated", username)
	}
	redirect(c, "/users")
}
