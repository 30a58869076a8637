package store

import (
	"math"
	"strings"
	"time"

	"labtrack/internal/models"
)

const (
	closedSamplesDocument = "closed_samples"

	createdAtLayout = "2006-01-02T15:04:05.000000"
)

// CorrectedWeight removes the moisture share from a weighed box.
func CorrectedWeight(weight, moisture float64) float64 {
	if moisture > 0 {
		return weight - weight*(moisture/100)
	}
	return weight
}

type ClosedSampleStore struct {
	col *Collection[models.ClosedSample, *models.ClosedSample]
	now func() time.Time
}

func NewClosedSampleStore(b Backend) *ClosedSampleStore {
	return &ClosedSampleStore{
		col: NewCollection[models.ClosedSample](b, closedSamplesDocument, MonotonicCounter{}),
		now: time.Now,
	}
}

func (s *ClosedSampleStore) SetClock(now func() time.Time) {
	s.now = now
}

func (s *ClosedSampleStore) List() ([]models.ClosedSample, error) {
	return s.col.List()
}

func (s *ClosedSampleStore) Count() (int, error) {
	return s.col.Count()
}

func (s *ClosedSampleStore) Get(id int) (*models.ClosedSample, error) {
	return s.col.Get(id)
}

// Create records a single box.
func (s *ClosedSampleStore) Create(closing models.Closing, box models.Box) (int, error) {
	ids, err := s.CreateWithBoxes(closing, []models.Box{box})
	if err != nil {
		return 0, err
	}
	return ids[0], nil
}

// CreateWithBoxes writes one ClosedSample per box, all sharing the closing
// fields, in a single document write. Ids are returned in box order.
func (s *ClosedSampleStore) CreateWithBoxes(closing models.Closing, boxes []models.Box) ([]int, error) {
	if len(boxes) == 0 {
		return nil, ErrNoBoxes
	}
	closing = trimClosing(closing)
	createdAt := s.now().Format(createdAtLayout)

	records := make([]models.ClosedSample, 0, len(boxes))
	for _, box := range boxes {
		if err := validateBox(box); err != nil {
			if ve, ok := err.(*ValidationError); ok && box.BoxSymbol != "" {
				ve.Message = "box " + strings.TrimSpace(box.BoxSymbol) + ": " + ve.Message
			}
			return nil, err
		}
		records = append(records, newClosedSample(closing, box, createdAt))
	}
	return s.col.CreateMany(records)
}

// Update replaces the fields of one record and recomputes its corrected weight.
func (s *ClosedSampleStore) Update(id int, closing models.Closing, box models.Box) (bool, error) {
	if err := validateBox(box); err != nil {
		return false, err
	}
	closing = trimClosing(closing)
	return s.col.Update(id, func(existing *models.ClosedSample) {
		createdAt := existing.CreatedAt
		*existing = newClosedSample(closing, box, createdAt)
	})
}

func (s *ClosedSampleStore) Delete(id int) (bool, error) {
	return s.col.Delete(id)
}

func newClosedSample(closing models.Closing, box models.Box, createdAt string) models.ClosedSample {
	return models.ClosedSample{
		ClosingDate:     closing.ClosingDate,
		CustomerName:    closing.CustomerName,
		SampleName:      closing.SampleName,
		Encoding:        closing.Encoding,
		BoxSymbol:       strings.TrimSpace(box.BoxSymbol),
		Weight:          box.Weight,
		Moisture:        box.Moisture,
		CorrectedWeight: CorrectedWeight(box.Weight, box.Moisture),
		Note:            closing.Note,
		CreatedAt:       createdAt,
	}
}

func trimClosing(c models.Closing) models.Closing {
	c.ClosingDate = strings.TrimSpace(c.ClosingDate)
	c.CustomerName = strings.TrimSpace(c.CustomerName)
	c.SampleName = strings.TrimSpace(c.SampleName)
	c.Encoding = strings.TrimSpace(c.Encoding)
	c.Note = strings.TrimSpace(c.Note)
	return c
}

func validateBox(box models.Box) error {
	switch {
	case math.IsNaN(box.Weight) || math.IsInf(box.Weight, 0) || box.Weight < 0:
		return &ValidationError{Field: "weight", Message: "weight must be a non-negative number"}
	case math.IsNaN(box.Moisture) || box.Moisture < 0 || box.Moisture > 100:
		return &ValidationError{Field: "moisture", Message: "moisture must be between 0 and 100"}
	}
	return nil
}
