package handlers

import (
	"database/sql"
	"net/http"
	"strings"

	"labtrack/internal/auth"
	"labtrack/internal/config"
	"labtrack/internal/database"
	"labtrack/internal/logger"
	"labtrack/internal/middleware"

	"github.com/gin-gonic/gin"
)

func handleLoginPage(c *gin.Context) {
	c.HTML(http.StatusOK, "login.html", gin.H{
		"Title":   "Login - Labtrack",
		"Flashes": consumeFlashes(c),
	})
}

func handleLogin(c *gin.Context) {
	username := strings.TrimSpace(c.PostForm("username"))
	password := c.PostForm("password")

	errors := make(map[string]string)

	if username == "" {
		errors["username"] = "Username is required"
	}

	if password == "" {
		errors["password"] = "Password is required"
	}

	if len(errors) > 0 {
		c.HTML(http.StatusBadRequest, "login.html", gin.H{
			"Title":    "Login - Labtrack",
			"Errors":   errors,
			"Username": username,
		})
		return
	}

	access := c.MustGet("access").(*auth.Service)
	if !access.VerifyCredentials(username, password) {
		logger.Warn("Failed login attempt", "username", username, "ip", c.ClientIP())
		errors["general"] = "Invalid username or password"
		c.HTML(http.StatusBadRequest, "login.html", gin.H{
			"Title":    "Login - Labtrack",
			"Errors":   errors,
			"Username": username,
		})
		return
	}

	db := c.MustGet("db").(*sql.DB)
	cfg := c.MustGet("config").(*config.Config)
	session, err := database.CreateSession(db, username, c.Request.UserAgent(), cfg.SessionDuration)
	if err != nil {
		logger.Error("Failed to create session", "username", username, "error", err)
		c.HTML(http.StatusInternalServerError, "login.html", gin.H{
			"Title":  "Login - Labtrack",
			"Errors": map[string]string{"general": "Failed to create session. Please try again."},
		})
		return
	}

	logger.Info("User logged in", "username", username)
	middleware.SetSessionCookie(c, cfg, session.ID)
	c.Redirect(http.StatusFound, "/")
}

func handleLogout(c *gin.Context) {
	cfg := c.MustGet("config").(*config.Config)
	sessionCookie, err := c.Cookie(middleware.SessionCookie)
	if err == nil {
		db := c.MustGet("db").(*sql.DB)
		if err := database.DeleteSession(db, sessionCookie); err != nil {
			logger.Error("Failed to delete session", "error", err)
		}
	}

	middleware.ClearSessionCookie(c, cfg)
	c.Redirect(http.StatusFound, "/login")
}
