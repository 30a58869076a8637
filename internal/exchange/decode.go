package exchange

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// IsCSVFilename accepts any name ending in .csv, case-insensitively.
func IsCSVFilename(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".csv")
}

// DecodeUpload turns an uploaded file into text. UTF-8 is used as is, with
// or without a BOM; anything else is read as Windows-1252, which is what
// spreadsheet tools on lab machines save by default.
func DecodeUpload(data []byte) (string, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if utf8.Valid(data) {
		return string(data), nil
	}
	decoded, err := charmap.Windows1252.NewDecoder().Bytes(data)
	if err != nil {
		return "", fmt.Errorf("failed to decode upload: %w", err)
	}
	return string(decoded), nil
}
