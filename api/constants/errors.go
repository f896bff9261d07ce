package constants

import "fmt"

// ============================================================================
// REQUEST ERRORS
// ============================================================================

const (
	ErrMethodNotAllowed = "Method Not Allowed"
	ErrInvalidQuery     = "invalid query parameters"
	ErrInvalidCaseID    = "case id must be a positive integer"
	ErrInvalidDateRange = "date range must be YYYY-MM-DD and from must not be after to"
)

// ============================================================================
// DATA ERRORS
// ============================================================================

const (
	ErrDBConnection    = "database connection unavailable"
	ErrCaseNotFound    = "Collection case not found"
	ErrExportFailed    = "Failed to build report workbook"
	ErrStreamingFailed = "Streaming unsupported"
)

// ============================================================================
// USER-VISIBLE NOTICES (toasts)
// ============================================================================

const (
	NoticeLoadFailed = "Failed to load %s"
	NoticeNoData     = "No data available for %s"
)

// LoadFailed formats the toast shown when a dashboard section cannot be fetched.
func LoadFailed(section string) string {
	return fmt.Sprintf(NoticeLoadFailed, section)
}

func NoData(section string) string {
	return fmt.Sprintf(NoticeNoData, section)
}
