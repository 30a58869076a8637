package handlers

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"

	"labtrack/internal/config"
	"labtrack/internal/logger"

	"github.com/gin-gonic/gin"
)

const (
	flashCookie = "flash"
	flashKey    = "flashes"

	// maxFlashes bounds the cookie size; the overflow is summarized in the
	// last slot.
	maxFlashes = 10
	// Browsers drop cookies over 4KB without a word.
	maxFlashCookie  = 3000
	maxFlashMessage = 300

	flashSuccess = "success"
	flashWarning = "warning"
	flashDanger  = "danger"
)

type Flash struct {
	Category string `json:"category"`
	Message  string `json:"message"`
}

func addFlash(c *gin.Context, category, message string) {
	c.Set(flashKey, append(pendingFlashes(c), Flash{Category: category, Message: message}))
}

func addFlashf(c *gin.Context, category, format string, args ...interface{}) {
	addFlash(c, category, fmt.Sprintf(format, args...))
}

// pendingFlashes returns the messages queued during this request.
func pendingFlashes(c *gin.Context) []Flash {
	if v, ok := c.Get(flashKey); ok {
		return v.([]Flash)
	}
	return nil
}

// redirect stores the flashes queued during this request and sends the
// client to location.
func redirect(c *gin.Context, location string) {
	saveFlashes(c, pendingFlashes(c))
	c.Redirect(http.StatusFound, location)
}

func limitFlashes(flashes []Flash) []Flash {
	return keepFlashes(flashes, maxFlashes)
}

// keepFlashes keeps at most n messages, summarizing the rest in the last one.
func keepFlashes(flashes []Flash, n int) []Flash {
	if len(flashes) <= n {
		return flashes
	}
	kept := append([]Flash(nil), flashes[:n-1]...)
	hidden := len(flashes) - len(kept)
	return append(kept, Flash{
		Category: flashWarning,
		Message:  fmt.Sprintf("... and %d more messages", hidden),
	})
}

func truncateMessage(msg string) string {
	runes := []rune(msg)
	if len(runes) <= maxFlashMessage {
		return msg
	}
	return string(runes[:maxFlashMessage-3]) + "..."
}

// encodeFlashes builds the cookie value, dropping trailing messages until it
// fits in maxFlashCookie.
func encodeFlashes(flashes []Flash) (string, error) {
	shortened := make([]Flash, len(flashes))
	for i, f := range flashes {
		shortened[i] = Flash{Category: f.Category, Message: truncateMessage(f.Message)}
	}

	n := len(shortened)
	if n > maxFlashes {
		n = maxFlashes
	}
	for ; ; n-- {
		data, err := json.Marshal(keepFlashes(shortened, n))
		if err != nil {
			return "", err
		}
		value := base64.URLEncoding.EncodeToString(data)
		if len(value) <= maxFlashCookie || n == 1 {
			return value, nil
		}
	}
}

func saveFlashes(c *gin.Context, flashes []Flash) {
	if len(flashes) == 0 {
		return
	}
	value, err := encodeFlashes(flashes)
	if err != nil {
		logger.Error("Failed to encode flash messages", "error", err)
		return
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(flashCookie, value, 0, "/", "", secureCookies(c), true)
}

// consumeFlashes returns the messages left by the previous request and
// clears them.
func consumeFlashes(c *gin.Context) []Flash {
	value, err := c.Cookie(flashCookie)
	if err != nil || value == "" {
		return nil
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(flashCookie, "", -1, "/", "", secureCookies(c), true)

	data, err := base64.URLEncoding.DecodeString(value)
	if err != nil {
		return nil
	}
	var flashes []Flash
	if err := json.Unmarshal(data, &flashes); err != nil {
		return nil
	}
	return flashes
}

func secureCookies(c *gin.Context) bool {
	if v, ok := c.Get("config"); ok {
		return !v.(*config.Config).IsDevelopment()
	}
	return true
}
