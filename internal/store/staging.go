package store

import (
	"bytes"
	"encoding/json"
	"fmt"

	"labtrack/internal/logger"
	"labtrack/internal/models"

	"github.com/google/uuid"
)

const (
	stagedPrefix  = "filtered_samples_"
	stagedVersion = 1
)

// stagedPayload is the current on-disk shape of a staged export. Files
// written by older releases hold a bare JSON list of samples instead.
type stagedPayload struct {
	Version    int             `json:"version"`
	CustomerID *int            `json:"customer_id"`
	Samples    []models.Sample `json:"samples"`
	Count      int             `json:"count"`
}

// Staging snapshots a filtered sample list into a single-use temp file.
// Files are only removed through Cleanup; nothing sweeps them.
type Staging struct {
	files   *FileBackend
	samples *SampleStore
}

func NewStaging(dir string, samples *SampleStore) (*Staging, error) {
	files, err := NewFileBackend(dir)
	if err != nil {
		return nil, err
	}
	return &Staging{files: files, samples: samples}, nil
}

func documentName(token string) (string, bool) {
	id, err := uuid.Parse(token)
	if err != nil || id.String() != token {
		return "", false
	}
	return stagedPrefix + token, true
}

// Path returns the file backing a token, or false for a malformed token.
func (s *Staging) Path(token string) (string, bool) {
	name, ok := documentName(token)
	if !ok {
		return "", false
	}
	return s.files.Path(name), true
}

// Stage writes the samples matching customerID and returns the token that
// identifies the snapshot.
func (s *Staging) Stage(customerID *int) (string, error) {
	samples, err := s.samples.ForCustomer(customerID)
	if err != nil {
		return "", err
	}

	payload := stagedPayload{
		Version:    stagedVersion,
		CustomerID: customerID,
		Samples:    samples,
		Count:      len(samples),
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(payload); err != nil {
		return "", fmt.Errorf("failed to encode staged export: %w", err)
	}

	token := uuid.NewString()
	name, _ := documentName(token)
	if err := s.files.Write(name, buf.Bytes()); err != nil {
		return "", err
	}

	logger.Debug("Staged filtered samples", "token", token, "count", len(samples))
	return token, nil
}

// Consume reads a staged snapshot. A malformed token, a missing file or an
// undecodable file all yield an empty result.
func (s *Staging) Consume(token string) ([]models.Sample, *int) {
	name, ok := documentName(token)
	if !ok {
		return nil, nil
	}
	data, err := s.files.Read(name)
	if err != nil {
		logger.Warn("Staged export not readable", "token", token, "error", err)
		return nil, nil
	}

	samples, customerID, err := decodeStaged(data)
	if err != nil {
		logger.Warn("Staged export not decodable", "token", token, "error", err)
		return nil, nil
	}
	return samples, customerID
}

// Cleanup removes the staged file for token.
func (s *Staging) Cleanup(token string) error {
	name, ok := documentName(token)
	if !ok {
		return fmt.Errorf("invalid staged export token")
	}
	return s.files.Remove(name)
}

func decodeStaged(data []byte) ([]models.Sample, *int, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var legacy []models.Sample
		if err := json.Unmarshal(trimmed, &legacy); err != nil {
			return nil, nil, err
		}
		return legacy, nil, nil
	}

	var payload stagedPayload
	if err := json.Unmarshal(trimmed, &payload); err != nil {
		return nil, nil, err
	}
	return payload.Samples, payload.CustomerID, nil
}
