package store

import (
	"strings"
	"time"

	"labtrack/internal/models"
)

const (
	samplesDocument = "samples"

	DefaultPerPage = 20
	MaxPerPage     = 500
)

// SampleStore keeps sample ids dense: after any delete the survivors are
// renumbered 1..N in their original order.
type SampleStore struct {
	col *Collection[models.Sample, *models.Sample]
	now func() time.Time
}

func NewSampleStore(b Backend) *SampleStore {
	return &SampleStore{
		col: NewCollection[models.Sample](b, samplesDocument, DenseSequence{}),
		now: time.Now,
	}
}

// SetClock replaces the clock used for received dates.
func (s *SampleStore) SetClock(now func() time.Time) {
	s.now = now
}

func (s *SampleStore) List() ([]models.Sample, error) {
	return s.col.List()
}

func (s *SampleStore) Count() (int, error) {
	return s.col.Count()
}

func (s *SampleStore) Get(id int) (*models.Sample, error) {
	return s.col.Get(id)
}

// ForCustomer returns every sample, or only those of customerID when set.
func (s *SampleStore) ForCustomer(customerID *int) ([]models.Sample, error) {
	if customerID == nil {
		return s.col.List()
	}
	want := *customerID
	return s.col.Filter(func(sample *models.Sample) bool {
		return sample.CustomerID == want
	})
}

// Create stamps today's date as the received date and appends the sample.
func (s *SampleStore) Create(sample models.Sample) (int, error) {
	if err := validateSample(&sample); err != nil {
		return 0, err
	}
	sample.ReceivedDate = s.now().Format("2006-01-02")
	return s.col.Create(sample)
}

func (s *SampleStore) Update(id int, sample models.Sample) (bool, error) {
	if err := validateSample(&sample); err != nil {
		return false, err
	}
	return s.col.Update(id, func(existing *models.Sample) {
		existing.CustomerID = sample.CustomerID
		existing.SampleName = sample.SampleName
		existing.SampleCode = sample.SampleCode
		existing.SampleType = sample.SampleType
		existing.AnalysisTarget = sample.AnalysisTarget
		existing.Note = sample.Note
	})
}

func (s *SampleStore) Delete(id int) (bool, error) {
	return s.col.Delete(id)
}

type SamplePage struct {
	Samples    []models.Sample
	Page       int
	PerPage    int
	TotalPages int
	TotalCount int
}

// Page returns one page of the (optionally customer-filtered) samples.
// Out-of-range pages yield an empty slice, not an error.
func (s *SampleStore) Page(page, perPage int, customerID *int) (*SamplePage, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = DefaultPerPage
	}
	if perPage > MaxPerPage {
		perPage = MaxPerPage
	}

	all, err := s.ForCustomer(customerID)
	if err != nil {
		return nil, err
	}

	result := &SamplePage{
		Page:       page,
		PerPage:    perPage,
		TotalCount: len(all),
		TotalPages: (len(all) + perPage - 1) / perPage,
		Samples:    []models.Sample{},
	}

	offset := (page - 1) * perPage
	if offset < len(all) {
		end := offset + perPage
		if end > len(all) {
			end = len(all)
		}
		result.Samples = all[offset:end]
	}
	return result, nil
}

func validateSample(s *models.Sample) error {
	s.SampleName = strings.TrimSpace(s.SampleName)
	s.SampleCode = strings.TrimSpace(s.SampleCode)
	s.SampleType = strings.TrimSpace(s.SampleType)
	s.AnalysisTarget = strings.TrimSpace(s.AnalysisTarget)
	s.Note = strings.TrimSpace(s.Note)
	if s.SampleName == "" {
		return &ValidationError{Field: "sample_name", Message: "sample name is required"}
	}
	return nil
}
