package handlers

import (
	"database/sql"
	"net/http"

	"labtrack/internal/auth"
	"labtrack/internal/config"
	"labtrack/internal/database"
	"labtrack/internal/email"
	"labtrack/internal/logger"
	"labtrack/internal/middleware"
	"labtrack/internal/models"
	"labtrack/internal/store"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(r *gin.Engine, db *sql.DB, cfg *config.Config, stores *store.Stores, access *auth.Service, mailer *email.Service) {
	r.Use(middleware.LogRequests())
	r.Use(middleware.SecurityHeaders(cfg))
	r.Use(middleware.AddDBContext(db))
	r.Use(middleware.AddServices(cfg, stores, access, mailer))
	r.Use(middleware.TrimSpaces())

	r.GET("/login", handleLoginPage)
	r.POST("/login", middleware.AuthRateLimit(cfg), handleLogin)

	protected := r.Group("/")
	protected.Use(middleware.AuthRequired(db, cfg))
	protected.Use(middleware.RequireActive(db, cfg, access))
	protected.Use(middleware.CSRF(cfg))
	{
		protected.GET("/", handleHome)
		protected.POST("/logout", handleLogout)

		protected.GET("/account", handleAccountPage)
		protected.POST("/account/password", handleChangePassword)
	}

	users := protected.Group("/users")
	users.Use(middleware.AdminRequired(db, cfg, access))
	{
		users.GET("", handleUsers)
		users.POST("/create", handleCreateUser)
		users.POST("/delete/:username", handleDeleteUser)
		users.POST("/:username/toggle-active", handleToggleUserActive)
	}

	customers := protected.Group("/customers")
	customers.Use(middleware.PermissionRequired(db, cfg, access, models.SectionCustomers))
	{
		customers.GET("", handleCustomers)
		customers.POST("/create", handleCreateCustomer)
		customers.POST("/delete/:id", handleDeleteCustomer)
		customers.GET("/:id/edit", handleEditCustomerPage)
		customers.POST("/:id/edit", handleUpdateCustomer)
	}

	receiving := protected.Group("/receiving")
	receiving.Use(middleware.PermissionRequired(db, cfg, access, models.SectionReceiving))
	{
		receiving.GET("", handleSamples)
		receiving.POST("/create", handleCreateSample)
		receiving.POST("/delete/:id", handleDeleteSample)
		receiving.GET("/:id/edit", handleEditSamplePage)
		receiving.POST("/:id/edit", handleUpdateSample)
		receiving.POST("/import", handleImportSamples)
		receiving.GET("/template", handleSampleTemplate)
		receiving.GET("/export", handleExportSamples)
		receiving.GET("/save-filtered", handleSaveFiltered)
		receiving.GET("/export-from-temp/:token", handleExportFromTemp)
	}

	closing := protected.Group("/closing")
	closing.Use(middleware.PermissionRequired(db, cfg, access, models.SectionClosing))
	{
		closing.GET("", handleClosingIndex)
		closing.GET("/regular", handleClosedSamples)
		closing.POST("/regular/add", handleAddClosedSample)
		closing.GET("/regular/:id/edit", handleEditClosedSamplePage)
		closing.POST("/regular/:id/edit", handleUpdateClosedSample)
		closing.POST("/regular/delete/:id", handleDeleteClosedSample)
		closing.GET("/regular/export", handleExportClosedSamples)
		closing.GET("/foil", placeholderPage("Foil closing"))
		closing.GET("/standard", placeholderPage("Standard closing"))
	}

	protected.GET("/irradiation",
		middleware.PermissionRequired(db, cfg, access, models.SectionIrradiation),
		placeholderPage("Irradiation"))
}

// section is one entry of the home page menu.
type section struct {
	Key   string
	Title string
	Path  string
	Count int
}

var sectionTitles = map[string]section{
	models.SectionUsers:       {Title: "User management", Path: "/users"},
	models.SectionCustomers:   {Title: "Customers", Path: "/customers"},
	models.SectionReceiving:   {Title: "Sample receiving", Path: "/receiving"},
	models.SectionClosing:     {Title: "Sample closing", Path: "/closing"},
	models.SectionIrradiation: {Title: "Irradiation", Path: "/irradiation"},
}

func handleHome(c *gin.Context) {
	username := c.GetString(middleware.UsernameKey)
	stores := c.MustGet("stores").(*store.Stores)
	access := c.MustGet("access").(*auth.Service)

	counters := map[string]func() (int, error){
		models.SectionCustomers: stores.Customers.Count,
		models.SectionReceiving: stores.Samples.Count,
		models.SectionClosing:   stores.ClosedSamples.Count,
	}

	sections := []section{}
	for _, key := range access.Sections(username) {
		// users is only reachable by admins, whatever the permission list says
		if key == models.SectionUsers && !access.IsAdmin(username) {
			continue
		}
		s := sectionTitles[key]
		s.Key = key
		if count, ok := counters[key]; ok {
			n, err := count()
			if err != nil {
				logger.Error("Failed to count records", "section", key, "error", err)
			}
			s.Count = n
		}
		sections = append(sections, s)
	}

	renderPage(c, http.StatusOK, "home.html", "Home", gin.H{
		"Sections": sections,
		"IsAdmin":  access.IsAdmin(username),
	})
}

func placeholderPage(title string) gin.HandlerFunc {
	return func(c *gin.Context) {
		renderPage(c, http.StatusOK, "placeholder.html", title, nil)
	}
}

// renderPage adds the values every authenticated page needs: the user, a
// fresh CSRF token and the pending flash messages.
func renderPage(c *gin.Context, status int, name, title string, data gin.H) {
	if data == nil {
		data = gin.H{}
	}
	username := c.GetString(middleware.UsernameKey)
	db := c.MustGet("db").(*sql.DB)

	data["Title"] = title + " - Labtrack"
	data["Username"] = username
	data["Flashes"] = limitFlashes(append(consumeFlashes(c), pendingFlashes(c)...))

	csrfToken, err := database.CreateCSRFToken(db, username)
	if err != nil {
		logger.Error("Failed to create CSRF token", "username", username, "error", err)
		c.HTML(http.StatusInternalServerError, name, gin.H{
			"Title":    data["Title"],
			"Username": username,
			"Error":    "Failed to generate security token",
		})
		return
	}
	data["CSRFToken"] = csrfToken.Token

	c.HTML(status, name, data)
}
