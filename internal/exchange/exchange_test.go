package exchange

import (
	"bytes"
	"encoding/csv"
	"errors"
	"strings"
	"testing"

	"labtrack/internal/models"
	"labtrack/internal/store"

	"github.com/xuri/excelize/v2"
)

const validHeader = "ID Khách hàng,Tên mẫu,Mã hóa mẫu,Loại mẫu,Chỉ tiêu phân tích,Ghi chú\n"

func TestImportAllValidRows(t *testing.T) {
	samples := store.NewSampleStore(store.NewMemoryBackend())
	content := validHeader +
		"1,Soil A,S-01,Đất,Pb,\n" +
		"1,Soil B,S-02,Đất,Cd,rush\n" +
		"2,Water,W-01,Nước,pH,\n"

	result := ImportSamples(content, samples)
	if result.Imported != 3 || len(result.Errors) != 0 {
		t.Fatalf("Expected 3 imported and no errors, got %d (%v)", result.Imported, result.Errors)
	}
	if len(result.IDs) != 3 || result.IDs[0] != 1 || result.IDs[2] != 3 {
		t.Errorf("Expected ids 1..3, got %v", result.IDs)
	}

	s, _ := samples.Get(3)
	if s.CustomerID != 2 || s.SampleType != "Nước" || s.AnalysisTarget != "pH" {
		t.Errorf("Unexpected imported sample: %+v", s)
	}
}

func TestImportReportsBadRows(t *testing.T) {
	samples := store.NewSampleStore(store.NewMemoryBackend())
	content := validHeader +
		"1,Soil A,,,,\n" +
		"abc,Soil B,,,,\n" +
		",,,,,\n" +
		"1,,,,,\n" +
		"1,Too,few\n" +
		"3,Soil C,,,,\n"

	result := ImportSamples(content, samples)
	if result.Imported != 2 {
		t.Errorf("Expected 2 imported, got %d", result.Imported)
	}
	want := []string{
		"Row 3: customer_id must be a number",
		"Row 5: missing required fields",
		"Row 6: column count does not match header",
	}
	if len(result.Errors) != len(want) {
		t.Fatalf("Expected %d errors, got %v", len(want), result.Errors)
	}
	for i := range want {
		if result.Errors[i] != want[i] {
			t.Errorf("Error %d: expected %q, got %q", i, want[i], result.Errors[i])
		}
	}
	if n, _ := samples.Count(); n != 2 {
		t.Errorf("Expected 2 stored samples, got %d", n)
	}
}

func TestImportStrayQuoteRow(t *testing.T) {
	samples := store.NewSampleStore(store.NewMemoryBackend())
	content := validHeader +
		"1,Soil A,,,,\n" +
		"1,Pipe 12\" sample,,,,\n" +
		"2,Water,,,,\n"

	result := ImportSamples(content, samples)
	if result.Imported != 3 || len(result.Errors) != 0 {
		t.Fatalf("Expected 3 imported and no errors, got %d (%v)", result.Imported, result.Errors)
	}
	s, err := samples.Get(2)
	if err != nil {
		t.Fatal("Failed to get sample:", err)
	}
	if s.SampleName != `Pipe 12" sample` {
		t.Errorf("Expected the quote to be kept, got %q", s.SampleName)
	}
	if last, _ := samples.Get(3); last.SampleName != "Water" {
		t.Errorf("Expected rows after the stray quote to import, got %+v", last)
	}
}

func TestImportMissingRequiredHeader(t *testing.T) {
	samples := store.NewSampleStore(store.NewMemoryBackend())
	content := "Tên mẫu,Ghi chú\nSoil,\n"

	result := ImportSamples(content, samples)
	if result.Imported != 0 || len(result.Errors) != 1 {
		t.Fatalf("Expected one fatal error, got %d imported, %v", result.Imported, result.Errors)
	}
	if !strings.Contains(result.Errors[0], "ID Khách hàng") {
		t.Errorf("Expected error to name the missing column, got %q", result.Errors[0])
	}
	if n, _ := samples.Count(); n != 0 {
		t.Errorf("Expected nothing stored, got %d", n)
	}
}

func TestImportNeedsDataRow(t *testing.T) {
	samples := store.NewSampleStore(store.NewMemoryBackend())
	for _, content := range []string{"", validHeader} {
		result := ImportSamples(content, samples)
		if result.Imported != 0 || len(result.Errors) != 1 {
			t.Errorf("Expected fatal error for %q, got %v", content, result.Errors)
		}
	}
}

func TestImportStripsBOMAndAcceptsCanonicalHeaders(t *testing.T) {
	samples := store.NewSampleStore(store.NewMemoryBackend())

	result := ImportSamples("\ufeff"+validHeader+"4,Rice,,,,\n", samples)
	if result.Imported != 1 {
		t.Errorf("Expected BOM-prefixed file to import, got %v", result.Errors)
	}

	result = ImportSamples("\ufeff\"customer_id\",\"sample_name\"\n5,Corn\n", samples)
	if result.Imported != 1 {
		t.Errorf("Expected canonical headers to import, got %v", result.Errors)
	}
}

type failingCreator struct{}

func (failingCreator) Create(models.Sample) (int, error) {
	return 0, errors.New("disk full")
}

func TestImportCreateFailure(t *testing.T) {
	result := ImportSamples(validHeader+"1,Soil,,,,\n", failingCreator{})
	if result.Imported != 0 || len(result.Errors) != 1 || !strings.Contains(result.Errors[0], "disk full") {
		t.Errorf("Expected create error to be reported, got %v", result.Errors)
	}
}

func TestDecodeUpload(t *testing.T) {
	got, err := DecodeUpload(append([]byte{0xEF, 0xBB, 0xBF}, []byte("Tên mẫu")...))
	if err != nil || got != "Tên mẫu" {
		t.Errorf("Expected BOM stripped UTF-8, got %q (%v)", got, err)
	}

	// "Café" in Windows-1252
	got, err = DecodeUpload([]byte{'C', 'a', 'f', 0xE9})
	if err != nil || got != "Café" {
		t.Errorf("Expected Windows-1252 fallback, got %q (%v)", got, err)
	}

	if !IsCSVFilename("mau.CSV") || IsCSVFilename("mau.xlsx") || IsCSVFilename("csv") {
		t.Error("Unexpected CSV filename check")
	}
}

func readExport(t *testing.T, data []byte) [][]string {
	t.Helper()
	if !bytes.HasPrefix(data, utf8BOM) {
		t.Fatal("Expected export to start with a UTF-8 BOM")
	}
	records, err := csv.NewReader(bytes.NewReader(data[len(utf8BOM):])).ReadAll()
	if err != nil {
		t.Fatal("Export is not valid CSV:", err)
	}
	return records
}

func TestExportSamplesCSV(t *testing.T) {
	samples := []models.Sample{
		{ID: 1, ReceivedDate: "2026-10-01", CustomerID: 7, SampleName: "Soil, wet", Note: "a \"quoted\" note"},
		{ID: 2, ReceivedDate: "2026-10-02", CustomerID: 3, SampleName: "Water"},
		{ID: 3, ReceivedDate: "2026-10-03", CustomerID: 7, SampleName: "Rice"},
	}

	seven := 7
	data, err := ExportSamplesCSV(samples, &seven)
	if err != nil {
		t.Fatal("Failed to export:", err)
	}
	records := readExport(t, data)
	if strings.Join(records[0], ",") != "ID,Ngày nhận,ID Khách hàng,Tên mẫu,Mã hóa mẫu,Loại mẫu,Chỉ tiêu phân tích,Ghi chú" {
		t.Errorf("Unexpected header: %v", records[0])
	}
	if len(records) != 3 || records[1][3] != "Soil, wet" || records[1][7] != `a "quoted" note` || records[2][0] != "3" {
		t.Errorf("Unexpected rows: %v", records)
	}

	all, _ := ExportSamplesCSV(samples, nil)
	if got := len(readExport(t, all)); got != 4 {
		t.Errorf("Expected header plus 3 rows, got %d", got)
	}
}

func TestSampleTemplateCSV(t *testing.T) {
	data, err := SampleTemplateCSV("42")
	if err != nil {
		t.Fatal("Failed to build template:", err)
	}
	records := readExport(t, data)
	if strings.Join(records[0], ",") != strings.TrimSpace(validHeader) {
		t.Errorf("Template header should match the import header, got %v", records[0])
	}
	for _, r := range records[1:] {
		if r[0] != "42" {
			t.Errorf("Expected customer id 42 in template row, got %v", r)
		}
	}

	data, _ = SampleTemplateCSV("4x")
	if records := readExport(t, data); records[1][0] != "1" {
		t.Errorf("Non-numeric customer id must be ignored, got %v", records[1])
	}

	// the template must import cleanly
	samples := store.NewSampleStore(store.NewMemoryBackend())
	text, _ := DecodeUpload(data)
	if result := ImportSamples(text, samples); result.Imported != len(templateRows) {
		t.Errorf("Expected template to import, got %v", result.Errors)
	}
}

func TestExportClosedSamplesXLSX(t *testing.T) {
	closed := []models.ClosedSample{
		{ID: 1, ClosingDate: "2026-10-17", CustomerName: "ACME", SampleName: "Rice", Encoding: "R-01", BoxSymbol: "A", Weight: 100, Moisture: 10, CorrectedWeight: 90},
		{ID: 2, ClosingDate: "2026-10-17", CustomerName: "ACME", SampleName: "Rice", Encoding: "R-01", BoxSymbol: "B", Weight: 50, CorrectedWeight: 50, Note: "dry"},
	}

	data, err := ExportClosedSamplesXLSX(closed)
	if err != nil {
		t.Fatal("Failed to export workbook:", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatal("Failed to open workbook:", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) != 1 || sheets[0] != "Mẫu đã đóng" {
		t.Fatalf("Expected a single 'Mẫu đã đóng' sheet, got %v", sheets)
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		t.Fatal("Failed to read rows:", err)
	}
	if len(rows) != 3 {
		t.Fatalf("Expected header plus 2 rows, got %d", len(rows))
	}
	for i, title := range closedHeader {
		if rows[0][i] != title {
			t.Errorf("Header column %d: expected %q, got %q", i, title, rows[0][i])
		}
	}
	if rows[1][5] != "A" || rows[1][8] != "90" || rows[2][9] != "dry" {
		t.Errorf("Unexpected data rows: %v", rows[1:])
	}
}

func TestSlugify(t *testing.T) {
	cases := []struct {
		name string
		id   int
		want string
	}{
		{"Công ty Đức Anh", 1, "Cong_ty_Duc_Anh"},
		{"  ACME -- Labs!!", 2, "ACME_--_Labs"},
		{"Viện Năng lượng Nguyên tử Việt Nam", 3, "Vien_Nang_luong_Nguyen_tu_Viet"},
		{"!!!", 4, "KhachHang_4"},
		{"", 5, "KhachHang_5"},
		{"3M Việt Nam", 6, "KhachHang_3M_Viet_Nam"},
		{"-dash", 7, "KhachHang_-dash"},
		{"ÁNH DƯƠNG", 8, "ANH_DUONG"},
	}
	for _, tc := range cases {
		if got := Slugify(tc.name, tc.id); got != tc.want {
			t.Errorf("Slugify(%q) = %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestFilenames(t *testing.T) {
	if got := CustomerExportFilename("Đức Anh", 1); got != "mau_khach_hang_Duc_Anh.csv" {
		t.Errorf("Unexpected customer filename %q", got)
	}
	if got := CustomerExportFilename(CustomerName(map[int]string{}, 9), 9); got != "mau_khach_hang_KhachHang_9.csv" {
		t.Errorf("Unexpected fallback filename %q", got)
	}
	if got := StagedSamplesFilename(12); got != "tat_ca_mau_12_mau.csv" {
		t.Errorf("Unexpected staged filename %q", got)
	}

	want := `attachment; filename="tat_ca_mau.csv"; filename*=UTF-8''tat_ca_mau.csv`
	if got := ContentDisposition(AllSamplesFilename()); got != want {
		t.Errorf("Expected %q, got %q", want, got)
	}
}
