package exchange

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	slugMaxLength  = 30
	slugPrefix     = "KhachHang_"
	ClosedFilename = "closed_samples.xlsx"
	TemplateName   = "samples_template.csv"
)

var (
	unsafeChars   = regexp.MustCompile(`[^a-zA-Z0-9\-_]`)
	repeatedUnder = regexp.MustCompile(`_+`)

	// đ and Đ are letters of their own, not d with a mark, so NFD leaves them.
	letterFold = strings.NewReplacer("đ", "d", "Đ", "D")
)

func stripMarks(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// Slugify turns a customer name into an ASCII file-name fragment.
func Slugify(name string, customerID int) string {
	s := stripMarks(letterFold.Replace(name))
	s = unsafeChars.ReplaceAllString(s, "_")
	s = repeatedUnder.ReplaceAllString(s, "_")
	s = strings.Trim(s, "_")
	if len(s) > slugMaxLength {
		s = s[:slugMaxLength]
	}
	if s == "" {
		s = fmt.Sprintf("%s%d", slugPrefix, customerID)
	}
	if c := s[0]; (c >= '0' && c <= '9') || strings.ContainsRune("._-", rune(c)) {
		s = slugPrefix + s
	}
	return s
}

// CustomerName returns the display name used in file names, falling back to
// a placeholder for unknown ids.
func CustomerName(names map[int]string, customerID int) string {
	if name, ok := names[customerID]; ok {
		return name
	}
	return fmt.Sprintf("%s%d", slugPrefix, customerID)
}

func CustomerExportFilename(name string, customerID int) string {
	return "mau_khach_hang_" + Slugify(name, customerID) + ".csv"
}

func AllSamplesFilename() string {
	return "tat_ca_mau.csv"
}

func StagedSamplesFilename(count int) string {
	return fmt.Sprintf("tat_ca_mau_%d_mau.csv", count)
}

// ContentDisposition builds an attachment header carrying both the plain and
// the RFC 5987 encoded file name.
func ContentDisposition(filename string) string {
	plain := strings.NewReplacer(`"`, "_", `\`, "_").Replace(filename)
	return fmt.Sprintf(`attachment; filename="%s"; filename*=UTF-8''%s`, plain, url.PathEscape(filename))
}
