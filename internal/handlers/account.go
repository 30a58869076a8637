package handlers

import (
	"net/http"

	"labtrack/internal/auth"
	"labtrack/internal/logger"
	"labtrack/internal/middleware"
	"labtrack/internal/store"

	"github.com/gin-gonic/gin"
)

const minPasswordLength = 8

func handleAccountPage(c *gin.Context) {
	access := c.MustGet("access").(*auth.Service)
	username := c.GetString(middleware.UsernameKey)

	renderPage(c, http.StatusOK, "account.html", "Account", gin.H{
		"Sections": access.Sections(username),
		"IsAdmin":  access.IsAdmin(username),
	})
}

func handleChangePassword(c *gin.Context) {
	username := c.GetString(middleware.UsernameKey)
	access := c.MustGet("access").(*auth.Service)
	stores := c.MustGet("stores").(*store.Stores)

	currentPassword := c.PostForm("current_password")
	newPassword := c.PostForm("new_password")
	confirmPassword := c.PostForm("confirm_password")

	// Validate inputs
	if currentPassword == "" || newPassword == "" || confirmPassword == "" {
		addFlash(c, flashWarning, "All password fields are required")
		redirect(c, "/account")
		return
	}

	if newPassword != confirmPassword {
		addFlash(c, flashWarning, "New passwords do not match")
		redirect(c, "/account")
		return
	}

	if len(newPassword) < minPasswordLength {
		addFlashf(c, flashWarning, "New password must be at least %d characters long", minPasswordLength)
		redirect(c, "/account")
		return
	}

	if !access.VerifyCredentials(username, currentPassword) {
		addFlash(c, flashDanger, "Current password is incorrect")
		redirect(c, "/account")
		return
	}

	if err := stores.Users.ChangePassword(username, newPassword); err != nil {
		logger.Error("Failed to change password", "username", username, "error", err)
		addFlash(c, flashDanger, "Failed to update password")
		redirect(c, "/account")
		return
	}

	logger.Info("Password changed", "username", username)
	addFlash(c, flashSuccess, "Password updated successfully")
	redirect(c, "/account")
}
