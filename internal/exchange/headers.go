package exchange

// Localized column headers. They are data (they appear in files lab staff
// exchange with customers), so they stay in Vietnamese.
const (
	headerID             = "ID"
	headerReceivedDate   = "Ngày nhận"
	headerCustomerID     = "ID Khách hàng"
	headerSampleName     = "Tên mẫu"
	headerSampleCode     = "Mã hóa mẫu"
	headerSampleType     = "Loại mẫu"
	headerAnalysisTarget = "Chỉ tiêu phân tích"
	headerNote           = "Ghi chú"
)

const (
	fieldCustomerID     = "customer_id"
	fieldSampleName     = "sample_name"
	fieldSampleCode     = "sample_code"
	fieldSampleType     = "sample_type"
	fieldAnalysisTarget = "analysis_target"
	fieldNote           = "note"
)

// importFields maps localized import headers to canonical field names.
// Headers that are not listed are used verbatim, so canonical names work too.
var importFields = map[string]string{
	headerCustomerID:     fieldCustomerID,
	headerSampleName:     fieldSampleName,
	headerSampleCode:     fieldSampleCode,
	headerSampleType:     fieldSampleType,
	headerAnalysisTarget: fieldAnalysisTarget,
	headerNote:           fieldNote,
}

var importHeader = []string{
	headerCustomerID,
	headerSampleName,
	headerSampleCode,
	headerSampleType,
	headerAnalysisTarget,
	headerNote,
}

var exportHeader = []string{
	headerID,
	headerReceivedDate,
	headerCustomerID,
	headerSampleName,
	headerSampleCode,
	headerSampleType,
	headerAnalysisTarget,
	headerNote,
}

const closedSheetName = "Mẫu đã đóng"

var closedHeader = []string{
	"ID",
	"Ngày đóng mẫu",
	"Tên khách hàng",
	"Tên mẫu",
	"Mã hóa",
	"Ký hiệu box",
	"Khối lượng cân (g)",
	"Độ ẩm (%)",
	"Khối lượng hiệu chỉnh (g)",
	"Ghi chú",
}
