package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"labtrack/internal/email"
	"labtrack/internal/exchange"
	"labtrack/internal/logger"
	"labtrack/internal/middleware"
	"labtrack/internal/models"
	"labtrack/internal/store"

	"github.com/gin-gonic/gin"
)

const (
	maxUploadSize = 10 * 1024 * 1024

	csvContentType = "text/csv; charset=utf-8"
)

// customerFilter reads the optional customer_id query parameter. Anything
// that is not a plain number means "no filter".
func customerFilter(c *gin.Context) *int {
	raw := c.Query("customer_id")
	if raw == "" {
		return nil
	}
	for _, r := range raw {
		if r < '0' || r > '9' {
			return nil
		}
	}
	id, err := strconv.Atoi(raw)
	if err != nil {
		return nil
	}
	return &id
}

func queryInt(c *gin.Context, key string, fallback int) int {
	n, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return fallback
	}
	return n
}

// sampleForm parses the sample fields; ok is false when the customer or the
// sample name is missing.
func sampleForm(c *gin.Context) (models.Sample, bool) {
	customerID, err := strconv.Atoi(c.PostForm("customer_id"))
	sample := models.Sample{
		CustomerID:     customerID,
		SampleName:     c.PostForm("sample_name"),
		SampleCode:     c.PostForm("sample_code"),
		SampleType:     c.PostForm("sample_type"),
		AnalysisTarget: c.PostForm("analysis_target"),
		Note:           c.PostForm("note"),
	}
	return sample, err == nil && sample.SampleName != ""
}

func customerNames(stores *store.Stores) map[int]string {
	names, err := stores.Customers.Names()
	if err != nil {
		logger.Error("Failed to load customer names", "error", err)
		return map[int]string{}
	}
	return names
}

func handleSamples(c *gin.Context) {
	stores := c.MustGet("stores").(*store.Stores)
	customerID := customerFilter(c)

	page, err := stores.Samples.Page(
		queryInt(c, "page", 1),
		queryInt(c, "per_page", store.DefaultPerPage),
		customerID,
	)
	if err != nil {
		logger.Error("Failed to list samples", "error", err)
		addFlash(c, flashDanger, "Failed to load samples")
		page = &store.SamplePage{Samples: []models.Sample{}, Page: 1, PerPage: store.DefaultPerPage}
	}

	customers, err := stores.Customers.List()
	if err != nil {
		logger.Error("Failed to list customers", "error", err)
		customers = []models.Customer{}
	}

	names := make(map[int]string, len(customers))
	for _, cu := range customers {
		names[cu.ID] = cu.Name
	}

	renderPage(c, http.StatusOK, "samples.html", "Sample receiving", gin.H{
		"Page":               page,
		"Customers":          customers,
		"CustomerNames":      names,
		"SelectedCustomerID": customerID,
	})
}

func handleCreateSample(c *gin.Context) {
	stores := c.MustGet("stores").(*store.Stores)

	sample, ok := sampleForm(c)
	if !ok {
		addFlash(c, flashWarning, "Please select a customer and enter a sample name")
		redirect(c, "/receiving")
		return
	}

	if _, err := stores.Samples.Create(sample); err != nil {
		var verr *store.ValidationError
		if errors.As(err, &verr) {
			addFlash(c, flashWarning, "Please select a customer and enter a sample name")
		} else {
			logger.Error("Failed to create sample", "error", err)
			addFlash(c, flashDanger, "Failed to add sample")
		}
		redirect(c, "/receiving")
		return
	}

	addFlash(c, flashSuccess, "Sample added")
	redirect(c, "/receiving")
}

func handleDeleteSample(c *gin.Context) {
	stores := c.MustGet("stores").(*store.Stores)

	id, ok := idParam(c)
	if !ok {
		addFlash(c, flashDanger, "Sample not found")
		redirect(c, "/receiving")
		return
	}

	deleted, err := stores.Samples.Delete(id)
	if err != nil {
		logger.Error("Failed to delete sample", "id", id, "error", err)
	}
	if err != nil || !deleted {
		addFlash(c, flashDanger, "Sample not found")
	} else {
		addFlash(c, flashSuccess, "Sample deleted")
	}
	redirect(c, "/receiving")
}

func handleEditSamplePage(c *gin.Context) {
	stores := c.MustGet("stores").(*store.Stores)

	id, ok := idParam(c)
	if !ok {
		addFlash(c, flashDanger, "Sample not found")
		redirect(c, "/receiving")
		return
	}

	sample, err := stores.Samples.Get(id)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			logger.Error("Failed to load sample", "id", id, "error", err)
		}
		addFlash(c, flashDanger, "Sample not found")
		redirect(c, "/receiving")
		return
	}

	customers, err := stores.Customers.List()
	if err != nil {
		logger.Error("Failed to list customers", "error", err)
		customers = []models.Customer{}
	}

	renderPage(c, http.StatusOK, "sample_edit.html", "Edit sample", gin.H{
		"Sample":    sample,
		"Customers": customers,
	})
}

func handleUpdateSample(c *gin.Context) {
	stores := c.MustGet("stores").(*store.Stores)

	id, ok := idParam(c)
	if !ok {
		addFlash(c, flashDanger, "Sample not found")
		redirect(c, "/receiving")
		return
	}

	editPath := fmt.Sprintf("/receiving/%d/edit", id)
	sample, ok := sampleForm(c)
	if !ok {
		addFlash(c, flashWarning, "Please select a customer and enter a sample name")
		redirect(c, editPath)
		return
	}

	updated, err := stores.Samples.Update(id, sample)
	var verr *store.ValidationError
	switch {
	case errors.As(err, &verr):
		addFlash(c, flashWarning, "Please select a customer and enter a sample name")
		redirect(c, editPath)
		return
	case err != nil:
		logger.Error("Failed to update sample", "id", id, "error", err)
		addFlash(c, flashDanger, "Update failed")
	case !updated:
		addFlash(c, flashDanger, "Update failed")
	default:
		addFlash(c, flashSuccess, "Sample updated")
	}
	redirect(c, "/receiving")
}

func handleImportSamples(c *gin.Context) {
	stores := c.MustGet("stores").(*store.Stores)
	mailer := c.MustGet("email_service").(*email.Service)

	file, header, err := c.Request.FormFile("csv_file")
	if err != nil || header.Filename == "" {
		addFlash(c, flashWarning, "Please choose a CSV file")
		redirect(c, "/receiving")
		return
	}
	defer file.Close()

	if !exchange.IsCSVFilename(header.Filename) {
		addFlash(c, flashDanger, "The file must be a CSV file")
		redirect(c, "/receiving")
		return
	}

	if header.Size > maxUploadSize {
		addFlash(c, flashDanger, "The file is too large")
		redirect(c, "/receiving")
		return
	}

	data, err := io.ReadAll(io.LimitReader(file, maxUploadSize+1))
	if err != nil {
		addFlashf(c, flashDanger, "Failed to read file: %v", err)
		redirect(c, "/receiving")
		return
	}

	content, err := exchange.DecodeUpload(data)
	if err != nil {
		addFlashf(c, flashDanger, "Failed to read file: %v", err)
		redirect(c, "/receiving")
		return
	}

	result := exchange.ImportSamples(content, stores.Samples)

	username := c.GetString(middleware.UsernameKey)
	logger.Info("Samples imported",
		"username", username,
		"filename", header.Filename,
		"imported", result.Imported,
		"errors", len(result.Errors))

	if result.Imported > 0 {
		addFlashf(c, flashSuccess, "Imported %d samples", result.Imported)
	}
	for _, msg := range result.Errors {
		addFlash(c, flashWarning, msg)
	}

	if result.Imported > 0 || len(result.Errors) > 0 {
		mailer.NotifyImport(email.ImportSummary{
			Username: username,
			Filename: header.Filename,
			Imported: result.Imported,
			Errors:   result.Errors,
			At:       time.Now(),
		})
	}

	redirect(c, "/receiving")
}

func sendAttachment(c *gin.Context, filename, contentType string, data []byte) {
	c.Header("Content-Disposition", exchange.ContentDisposition(filename))
	c.Header("Cache-Control", "no-cache")
	c.Data(http.StatusOK, contentType, data)
}

func handleSampleTemplate(c *gin.Context) {
	data, err := exchange.SampleTemplateCSV(c.Query("customer_id"))
	if err != nil {
		logger.Error("Failed to build import template", "error", err)
		addFlash(c, flashDanger, "Failed to build the import template")
		redirect(c, "/receiving")
		return
	}

	sendAttachment(c, exchange.TemplateName, csvContentType, data)
}

func handleExportSamples(c *gin.Context) {
	stores := c.MustGet("stores").(*store.Stores)
	customerID := customerFilter(c)

	samples, err := stores.Samples.ForCustomer(customerID)
	if err != nil {
		logger.Error("Failed to load samples for export", "error", err)
		addFlashf(c, flashDanger, "Export failed: %v", err)
		redirect(c, "/receiving")
		return
	}

	data, err := exchange.ExportSamplesCSV(samples, customerID)
	if err != nil {
		logger.Error("Failed to export samples", "error", err)
		addFlashf(c, flashDanger, "Export failed: %v", err)
		redirect(c, "/receiving")
		return
	}

	filename := exchange.AllSamplesFilename()
	if customerID != nil {
		name := exchange.CustomerName(customerNames(stores), *customerID)
		filename = exchange.CustomerExportFilename(name, *customerID)
	}

	sendAttachment(c, filename, csvContentType, data)
}

func handleSaveFiltered(c *gin.Context) {
	stores := c.MustGet("stores").(*store.Stores)

	token, err := stores.Staging.Stage(customerFilter(c))
	if err != nil {
		logger.Error("Failed to stage filtered samples", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"temp_file": token,
		"message":   "Filtered data saved",
	})
}

func handleExportFromTemp(c *gin.Context) {
	stores := c.MustGet("stores").(*store.Stores)
	token := c.Param("token")

	samples, customerID := stores.Staging.Consume(token)
	if len(samples) == 0 {
		addFlash(c, flashDanger, "Filtered data not found")
		redirect(c, "/receiving")
		return
	}

	data, err := exchange.ExportSamplesCSV(samples, nil)
	if err != nil {
		logger.Error("Failed to export staged samples", "error", err)
		addFlashf(c, flashDanger, "Export failed: %v", err)
		redirect(c, "/receiving")
		return
	}

	filename := exchange.StagedSamplesFilename(len(samples))
	if customerID != nil {
		name := exchange.CustomerName(customerNames(stores), *customerID)
		filename = exchange.CustomerExportFilename(name, *customerID)
	}

	if err := stores.Staging.Cleanup(token); err != nil {
		logger.Warn("Failed to remove staged export", "token", token, "error", err)
	}

	sendAttachment(c, filename, csvContentType, data)
}
