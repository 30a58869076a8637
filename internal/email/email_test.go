package email

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"labtrack/internal/config"
)

func TestServiceDisabledWithoutConfig(t *testing.T) {
	svc := NewService(&config.Config{MailgunDomain: "mg.example.com", MailgunAPIKey: "key"})
	if svc.IsEnabled() {
		t.Error("Expected service to stay disabled without a recipient")
	}
	if err := svc.SendImportSummary(ImportSummary{}); err == nil {
		t.Error("Expected error from disabled service")
	}
	// must not panic
	svc.NotifyImport(ImportSummary{})

	var nilSvc *Service
	if nilSvc.IsEnabled() {
		t.Error("nil service is never enabled")
	}
}

func TestImportSummaryBodies(t *testing.T) {
	errs := make([]string, 0, maxListedErrors+5)
	for i := 0; i < maxListedErrors+5; i++ {
		errs = append(errs, fmt.Sprintf("Row %d: missing required fields", i+2))
	}
	summary := ImportSummary{
		Username: "lan",
		Filename: "<mau>.csv",
		Imported: 7,
		Errors:   errs,
		At:       time.Date(2026, 10, 17, 9, 30, 0, 0, time.UTC),
	}

	text := importSummaryText(summary)
	if !strings.Contains(text, "Samples created: 7") || !strings.Contains(text, "... and 5 more") {
		t.Errorf("Unexpected text body:\n%s", text)
	}

	body := importSummaryHTML(summary)
	if strings.Contains(body, "<mau>") || !strings.Contains(body, "&lt;mau&gt;.csv") {
		t.Error("Expected file name to be escaped in HTML body")
	}
	if !strings.Contains(body, "2026-10-17 09:30") {
		t.Error("Expected import time in HTML body")
	}
}
