package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"labtrack/internal/logger"
)

// document is the in-memory form of one persisted entity file:
// {"next_id": N, "<name>": [...]}, with next_id omitted when the entity
// does not keep a counter.
type document[T any] struct {
	nextID  int
	records []T
}

type layout struct {
	name    string
	counter bool
}

func emptyDocument[T any](seed func() []T) document[T] {
	doc := document[T]{nextID: 1}
	if seed != nil {
		doc.records = seed()
	}
	if doc.records == nil {
		doc.records = []T{}
	}
	return doc
}

// readDocument loads a document, initializing it on first access. A document
// that cannot be decoded is kept aside as <name>.corrupt and replaced by the
// empty default.
func readDocument[T any](b Backend, l layout, seed func() []T) (document[T], error) {
	data, err := b.Read(l.name)
	if errors.Is(err, ErrDocumentNotFound) {
		doc := emptyDocument(seed)
		if err := writeDocument(b, l, doc); err != nil {
			return doc, err
		}
		return doc, nil
	}
	if err != nil {
		return document[T]{}, err
	}

	doc, err := decodeDocument[T](data, l)
	if err != nil {
		logger.Warn("Reinitializing unreadable document", "document", l.name, "error", err)
		if werr := b.Write(l.name+".corrupt", data); werr != nil {
			logger.Error("Failed to keep copy of unreadable document", "document", l.name, "error", werr)
		}
		doc = emptyDocument(seed)
		if err := writeDocument(b, l, doc); err != nil {
			return doc, err
		}
	}
	return doc, nil
}

func decodeDocument[T any](data []byte, l layout) (document[T], error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return document[T]{}, fmt.Errorf("failed to decode %s: %w", l.name, err)
	}

	doc := document[T]{nextID: 1}
	if l.counter {
		if v, ok := raw["next_id"]; ok {
			if err := json.Unmarshal(v, &doc.nextID); err != nil {
				return document[T]{}, fmt.Errorf("failed to decode %s next_id: %w", l.name, err)
			}
		}
		if doc.nextID < 1 {
			doc.nextID = 1
		}
	}
	if v, ok := raw[l.name]; ok && !bytes.Equal(bytes.TrimSpace(v), []byte("null")) {
		if err := json.Unmarshal(v, &doc.records); err != nil {
			return document[T]{}, fmt.Errorf("failed to decode %s records: %w", l.name, err)
		}
	}
	if doc.records == nil {
		doc.records = []T{}
	}
	return doc, nil
}

func writeDocument[T any](b Backend, l layout, doc document[T]) error {
	body := map[string]interface{}{l.name: doc.records}
	if l.counter {
		body["next_id"] = doc.nextID
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(body); err != nil {
		return fmt.Errorf("failed to encode %s: %w", l.name, err)
	}

	if err := b.Write(l.name, buf.Bytes()); err != nil {
		return fmt.Errorf("failed to save %s: %w", l.name, err)
	}
	return nil
}
