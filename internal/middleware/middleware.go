package middleware

import (
	"database/sql"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"labtrack/internal/auth"
	"labtrack/internal/config"
	"labtrack/internal/database"
	"labtrack/internal/email"
	"labtrack/internal/logger"
	"labtrack/internal/store"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

const (
	SessionCookie = "session_id"
	UsernameKey   = "username"
)

// Access answers authorization questions for the guards.
type Access interface {
	IsAdmin(username string) bool
	HasPermission(username, section string) bool
	IsActive(username string) bool
}

type rateLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

type clientTracker struct {
	errors404    []time.Time
	blockedUntil time.Time
	lastSeen     time.Time
}

var (
	clients    = make(map[string]*rateLimiter)
	mu         sync.Mutex
	trackers   = make(map[string]*clientTracker)
	trackersMu sync.Mutex
)

func RateLimit(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Skip rate limiting in development mode
		if cfg.IsDevelopment() {
			c.Next()
			return
		}

		ip := c.ClientIP()

		mu.Lock()
		defer mu.Unlock()

		if limiter, exists := clients[ip]; exists {
			limiter.lastSeen = time.Now()
			if !limiter.limiter.Allow() {
				c.JSON(http.StatusTooManyRequests, gin.H{"error": "Rate limit exceeded"})
				c.Abort()
				return
			}
		} else {
			clients[ip] = &rateLimiter{
				limiter:  rate.NewLimiter(rate.Every(time.Second/20), 20),
				lastSeen: time.Now(),
			}
		}

		cleanupOldClients()
		c.Next()
	}
}

func AuthRateLimit(cfg *config.Config) gin.HandlerFunc {
	authClients := make(map[string]*rateLimiter)
	var authMu sync.Mutex

	return func(c *gin.Context) {
		// Skip rate limiting in development mode
		if cfg.IsDevelopment() {
			c.Next()
			return
		}

		ip := c.ClientIP()

		authMu.Lock()
		defer authMu.Unlock()

		if limiter, exists := authClients[ip]; exists {
			limiter.lastSeen = time.Now()
			if !limiter.limiter.Allow() {
				logger.Warn("Login rate limit exceeded", "ip", ip)
				c.JSON(http.StatusTooManyRequests, gin.H{"error": "Authentication rate limit exceeded"})
				c.Abort()
				return
			}
		} else {
			authClients[ip] = &rateLimiter{
				limiter:  rate.NewLimiter(rate.Every(time.Minute), 5),
				lastSeen: time.Now(),
			}
		}

		for ip, client := range authClients {
			if time.Since(client.lastSeen) > 30*time.Minute {
				delete(authClients, ip)
			}
		}

		c.Next()
	}
}

func IPBlocker(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Skip IP blocking in development mode
		if cfg.IsDevelopment() {
			c.Next()
			return
		}

		ip := c.ClientIP()

		trackersMu.Lock()
		blocked := false
		if tracker, exists := trackers[ip]; exists {
			blocked = time.Now().Before(tracker.blockedUntil)
		}
		trackersMu.Unlock()

		if blocked {
			c.String(http.StatusForbidden, "Your IP has been temporarily blocked due to excessive invalid requests. Please try again later.")
			c.Abort()
			return
		}

		c.Next()
	}
}

func Track404AndBlock(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if cfg.IsDevelopment() || c.Writer.Status() != http.StatusNotFound {
			return
		}

		ip := c.ClientIP()
		now := time.Now()

		trackersMu.Lock()
		defer trackersMu.Unlock()

		tracker, exists := trackers[ip]
		if !exists {
			tracker = &clientTracker{lastSeen: now}
			trackers[ip] = tracker
		}

		tracker.lastSeen = now
		tracker.errors404 = append(tracker.errors404, now)

		// Only the last 5 minutes count
		cutoff := now.Add(-5 * time.Minute)
		valid := tracker.errors404[:0]
		for _, t := range tracker.errors404 {
			if t.After(cutoff) {
				valid = append(valid, t)
			}
		}
		tracker.errors404 = valid

		if len(tracker.errors404) >= 10 {
			tracker.blockedUntil = now.Add(15 * time.Minute)
			logger.Warn("Blocked IP for excessive 404s", "ip", ip, "count", len(tracker.errors404))
			tracker.errors404 = nil
		}

		for trackerIP, t := range trackers {
			if time.Since(t.lastSeen) > 30*time.Minute && now.After(t.blockedUntil) {
				delete(trackers, trackerIP)
			}
		}
	}
}

func cleanupOldClients() {
	for ip, client := range clients {
		if time.Since(client.lastSeen) > 10*time.Minute {
			delete(clients, ip)
		}
	}
}

func CORS(allowedOrigins string) gin.HandlerFunc {
	origins := strings.Split(allowedOrigins, ",")
	for i := range origins {
		origins[i] = strings.TrimSpace(origins[i])
	}

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		allowed := false
		for _, allowedOrigin := range origins {
			if origin != "" && origin == allowedOrigin {
				allowed = true
				break
			}
		}

		if allowed {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Access-Control-Allow-Credentials", "true")
		}

		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, X-CSRF-Token")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

func CSRF(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Skip CSRF validation in development mode
		if cfg.IsDevelopment() {
			c.Next()
			return
		}

		if c.Request.Method == "GET" || c.Request.Method == "HEAD" || c.Request.Method == "OPTIONS" {
			c.Next()
			return
		}

		token := c.GetHeader("X-CSRF-Token")
		if token == "" {
			token = c.PostForm("csrf_token")
		}

		if token == "" {
			c.JSON(http.StatusForbidden, gin.H{"error": "CSRF token required"})
			c.Abort()
			return
		}

		username := c.GetString(UsernameKey)
		if username == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
			c.Abort()
			return
		}

		db, exists := c.Get("db")
		if !exists {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Database connection not available"})
			c.Abort()
			return
		}

		if err := database.ValidateCSRFToken(db.(*sql.DB), token, username); err != nil {
			logger.Warn("Rejected CSRF token", "username", username, "path", c.Request.URL.Path)
			c.JSON(http.StatusForbidden, gin.H{"error": "Invalid CSRF token"})
			c.Abort()
			return
		}

		c.Next()
	}
}

// sessionUser resolves the logged-in username, reusing the result of an
// earlier guard when there is one.
func sessionUser(c *gin.Context, db *sql.DB, cfg *config.Config) (string, bool) {
	if username := c.GetString(UsernameKey); username != "" {
		return username, true
	}

	sessionCookie, err := c.Cookie(SessionCookie)
	if err != nil || sessionCookie == "" {
		return "", false
	}

	username, err := database.ValidateSession(db, sessionCookie, cfg.SessionDuration)
	if err != nil {
		ClearSessionCookie(c, cfg)
		return "", false
	}

	c.Set(UsernameKey, username)
	c.Set("db", db)
	return username, true
}

func SetSessionCookie(c *gin.Context, cfg *config.Config, sessionID string) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(SessionCookie, sessionID, int(cfg.SessionDuration.Seconds()), "/", "", !cfg.IsDevelopment(), true)
}

func ClearSessionCookie(c *gin.Context, cfg *config.Config) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(SessionCookie, "", -1, "/", "", !cfg.IsDevelopment(), true)
}

// AuthRequired redirects to the login page unless the request carries a live
// session.
func AuthRequired(db *sql.DB, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := sessionUser(c, db, cfg); !ok {
			c.Redirect(http.StatusFound, "/login")
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireActive ends the session of a user that was deactivated after
// logging in.
func RequireActive(db *sql.DB, cfg *config.Config, access Access) gin.HandlerFunc {
	return func(c *gin.Context) {
		username := c.GetString(UsernameKey)
		if username == "" {
			c.Redirect(http.StatusFound, "/login")
			c.Abort()
			return
		}

		if !access.IsActive(username) {
			if err := database.DeleteUserSessions(db, username); err != nil {
				logger.Error("Failed to end sessions of inactive user", "username", username, "error", err)
			}
			ClearSessionCookie(c, cfg)
			c.Redirect(http.StatusFound, "/login")
			c.Abort()
			return
		}

		c.Next()
	}
}

func AdminRequired(db *sql.DB, cfg *config.Config, access Access) gin.HandlerFunc {
	return func(c *gin.Context) {
		username, ok := sessionUser(c, db, cfg)
		if !ok {
			c.Redirect(http.StatusFound, "/login")
			c.Abort()
			return
		}

		if !access.IsAdmin(username) {
			c.JSON(http.StatusForbidden, gin.H{"error": "Admin access required"})
			c.Abort()
			return
		}

		c.Next()
	}
}

func PermissionRequired(db *sql.DB, cfg *config.Config, access Access, section string) gin.HandlerFunc {
	return func(c *gin.Context) {
		username, ok := sessionUser(c, db, cfg)
		if !ok {
			c.Redirect(http.StatusFound, "/login")
			c.Abort()
			return
		}

		if !access.HasPermission(username, section) {
			c.JSON(http.StatusForbidden, gin.H{"error": fmt.Sprintf("Permission %q required", section)})
			c.Abort()
			return
		}

		c.Next()
	}
}

func SecurityHeaders(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Skip security headers in development mode to allow browser automation tools
		if cfg.IsDevelopment() {
			c.Next()
			return
		}

		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Referrer-Policy", "same-origin")
		c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		c.Header("Content-Security-Policy", "default-src 'self'; script-src 'self' 'unsafe-inline'; style-src 'self' 'unsafe-inline'; img-src 'self' data:")
		c.Next()
	}
}

func LogRequests() gin.HandlerFunc {
	return gin.LoggerWithFormatter(func(param gin.LogFormatterParams) string {
		return fmt.Sprintf("[%s] %s %s %d %s %s\n",
			param.TimeStamp.Format("2006/01/02 15:04:05"),
			param.Method,
			param.Path,
			param.StatusCode,
			param.Latency,
			param.ClientIP,
		)
	})
}

func AddDBContext(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("db", db)
		c.Next()
	}
}

// AddServices exposes the application services to handlers.
func AddServices(cfg *config.Config, stores *store.Stores, access *auth.Service, mailer *email.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("config", cfg)
		c.Set("stores", stores)
		c.Set("access", access)
		c.Set("email_service", mailer)
		c.Next()
	}
}

// TrimSpaces trims url-encoded form values before handlers read them.
func TrimSpaces() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == "POST" && c.ContentType() == "application/x-www-form-urlencoded" {
			if err := c.Request.ParseForm(); err == nil {
				for key, values := range c.Request.PostForm {
					for i, value := range values {
						c.Request.PostForm[key][i] = strings.TrimSpace(value)
					}
				}
			}
		}
		c.Next()
	}
}
