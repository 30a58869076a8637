package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"sort"
	"strconv"

	"labtrack/internal/exchange"
	"labtrack/internal/logger"
	"labtrack/internal/models"
	"labtrack/internal/store"

	"github.com/gin-gonic/gin"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// subModule is one card of the closing index page.
type subModule struct {
	Title       string
	Path        string
	Description string
}

var closingModules = []subModule{
	{"Regular closing", "/closing/regular", "Closed regular samples"},
	{"Foil closing", "/closing/foil", "Closed foil monitors"},
	{"Standard closing", "/closing/standard", "Closed reference standards"},
}

var boxFieldPattern = regexp.MustCompile(`^boxes\[(\d+)\]\[(box_symbol|weight|moisture)\]$`)

// parseBoxes collects boxes[i][field] form values ordered by index. Boxes
// without a symbol or a weight are skipped.
func parseBoxes(form url.Values) ([]models.Box, error) {
	raw := make(map[int]map[string]string)
	for key, values := range form {
		m := boxFieldPattern.FindStringSubmatch(key)
		if m == nil || len(values) == 0 {
			continue
		}
		idx, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		if raw[idx] == nil {
			raw[idx] = make(map[string]string)
		}
		raw[idx][m[2]] = values[0]
	}

	indices := make([]int, 0, len(raw))
	for idx := range raw {
		indices = append(indices, idx)
	}
	sort.Ints(indices)

	boxes := []models.Box{}
	for _, idx := range indices {
		fields := raw[idx]
		if fields["box_symbol"] == "" || fields["weight"] == "" {
			continue
		}
		box, err := parseBox(fields["box_symbol"], fields["weight"], fields["moisture"])
		if err != nil {
			return nil, err
		}
		boxes = append(boxes, box)
	}
	return boxes, nil
}

func parseBox(symbol, weight, moisture string) (models.Box, error) {
	box := models.Box{BoxSymbol: symbol}

	w, err := strconv.ParseFloat(weight, 64)
	if err != nil {
		return box, &store.ValidationError{Field: "weight", Message: fmt.Sprintf("box %s: weight must be a number", symbol)}
	}
	box.Weight = w

	if moisture != "" {
		m, err := strconv.ParseFloat(moisture, 64)
		if err != nil {
			return box, &store.ValidationError{Field: "moisture", Message: fmt.Sprintf("box %s: moisture must be a number", symbol)}
		}
		box.Moisture = m
	}
	return box, nil
}

func closingForm(c *gin.Context) models.Closing {
	return models.Closing{
		ClosingDate:  c.PostForm("closing_date"),
		CustomerName: c.PostForm("customer_name"),
		SampleName:   c.PostForm("sample_name"),
		Encoding:     c.PostForm("encoding"),
		Note:         c.PostForm("note"),
	}
}

func handleClosingIndex(c *gin.Context) {
	renderPage(c, http.StatusOK, "closing.html", "Sample closing", gin.H{
		"Modules": closingModules,
	})
}

func handleClosedSamples(c *gin.Context) {
	stores := c.MustGet("stores").(*store.Stores)

	closed, err := stores.ClosedSamples.List()
	if err != nil {
		logger.Error("Failed to list closed samples", "error", err)
		addFlash(c, flashDanger, "Failed to load closed samples")
		closed = []models.ClosedSample{}
	}

	renderPage(c, http.StatusOK, "closing_regular.html", "Regular closing", gin.H{
		"ClosedSamples": closed,
		"BoxSlots":      []int{0, 1, 2, 3, 4},
	})
}

func handleAddClosedSample(c *gin.Context) {
	stores := c.MustGet("stores").(*store.Stores)

	closing := closingForm(c)
	if err := c.Request.ParseForm(); err != nil {
		addFlashf(c, flashDanger, "Failed to read form: %v", err)
		redirect(c, "/closing/regular")
		return
	}

	boxes, err := parseBoxes(c.Request.PostForm)
	if err == nil {
		var ids []int
		ids, err = stores.ClosedSamples.CreateWithBoxes(closing, boxes)
		if err == nil {
			logger.Info("Closed sample recorded",
				"sample_name", closing.SampleName,
				"boxes", len(ids))
			addFlashf(c, flashSuccess, "Closed sample added with %d boxes", len(ids))
			redirect(c, "/closing/regular")
			return
		}
	}

	var verr *store.ValidationError
	switch {
	case errors.Is(err, store.ErrNoBoxes):
		addFlash(c, flashDanger, "Please add at least one box")
	case errors.As(err, &verr):
		addFlash(c, flashWarning, verr.Error())
	default:
		logger.Error("Failed to add closed sample", "error", err)
		addFlashf(c, flashDanger, "Failed to add closed sample: %v", err)
	}
	redirect(c, "/closing/regular")
}

func handleEditClosedSamplePage(c *gin.Context) {
	stores := c.MustGet("stores").(*store.Stores)

	id, ok := idParam(c)
	if !ok {
		addFlash(c, flashDanger, "Closed sample not found")
		redirect(c, "/closing/regular")
		return
	}

	closed, err := stores.ClosedSamples.Get(id)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			logger.Error("Failed to load closed sample", "id", id, "error", err)
		}
		addFlash(c, flashDanger, "Closed sample not found")
		redirect(c, "/closing/regular")
		return
	}

	renderPage(c, http.StatusOK, "closed_sample_edit.html", "Edit closed sample", gin.H{
		"ClosedSample": closed,
	})
}

func handleUpdateClosedSample(c *gin.Context) {
	stores := c.MustGet("stores").(*store.Stores)

	id, ok := idParam(c)
	if !ok {
		addFlash(c, flashDanger, "Closed sample not found")
		redirect(c, "/closing/regular")
		return
	}
	editPath := fmt.Sprintf("/closing/regular/%d/edit", id)

	symbol := c.PostForm("box_symbol")
	weight := c.PostForm("weight")
	if symbol == "" || weight == "" {
		addFlash(c, flashWarning, "Box symbol and weight are required")
		redirect(c, editPath)
		return
	}

	box, err := parseBox(symbol, weight, c.PostForm("moisture"))
	if err == nil {
		var updated bool
		updated, err = stores.ClosedSamples.Update(id, closingForm(c), box)
		if err == nil && !updated {
			err = store.ErrNotFound
		}
	}

	var verr *store.ValidationError
	switch {
	case err == nil:
		addFlash(c, flashSuccess, "Closed sample updated")
	case errors.As(err, &verr):
		addFlash(c, flashWarning, verr.Error())
		redirect(c, editPath)
		return
	case errors.Is(err, store.ErrNotFound):
		addFlash(c, flashDanger, "Closed sample not found")
	default:
		logger.Error("Failed to update closed sample", "id", id, "error", err)
		addFlash(c, flashDanger, "Update failed")
	}
	redirect(c, "/closing/regular")
}

func handleDeleteClosedSample(c *gin.Context) {
	stores := c.MustGet("stores").(*store.Stores)

	id, ok := idParam(c)
	if !ok {
		addFlash(c, flashDanger, "Closed sample not found")
		redirect(c, "/closing/regular")
		return
	}

	deleted, err := stores.ClosedSamples.Delete(id)
	switch {
	case err != nil:
		logger.Error("Failed to delete closed sample", "id", id, "error", err)
		addFlashf(c, flashDanger, "Failed to delete closed sample: %v", err)
	case !deleted:
		addFlash(c, flashDanger, "Closed sample not found")
	default:
		addFlash(c, flashSuccess, "Closed sample deleted")
	}
	redirect(c, "/closing/regular")
}

func handleExportClosedSamples(c *gin.Context) {
	stores := c.MustGet("stores").(*store.Stores)

	closed, err := stores.ClosedSamples.List()
	if err == nil {
		var data []byte
		data, err = exchange.ExportClosedSamplesXLSX(closed)
		if err == nil {
			sendAttachment(c, exchange.ClosedFilename, xlsxContentType, data)
			return
		}
	}

	logger.Error("Failed to export closed samples", "error", err)
	addFlashf(c, flashDanger, "Export failed: %v", err)
	redirect(c, "/closing/regular")
}
