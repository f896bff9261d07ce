package constants

// Content Types
const (
	ContentTypeJSON  = "application/json"
	ContentTypeText  = "Content-Type"
	ContentTypeXLSX  = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	ContentTypeEvent = "text/event-stream"
)

// Headers
const (
	HeaderAccessControlAllowOrigin  = "Access-Control-Allow-Origin"
	HeaderAccessControlAllowHeaders = "Access-Control-Allow-Headers"
	HeaderContentDisposition        = "Content-Disposition"
)

// Response envelope keys
const (
	ValueSuccess  = "success"
	ValueError    = "error"
	ValueData     = "data"
	ValueWarning  = "warning"
	ValuePage     = "page"
	ValueFailures = "failed_sections"
)

// Date formats
const (
	DateTimeFormat = "2006-01-02 15:04:05"
	DateFormat     = "2006-01-02"
	MonthFormat    = "2006-01"
	DateFormatISO  = "2006-01-02T15:04:05"
)

// Case and transaction statuses as stored in kastle_banking
const (
	CaseStatusActive     = "ACTIVE"
	CampaignStatusActive = "ACTIVE"
	TxnStatusCompleted   = "COMPLETED"
	TxnStatusPending     = "PENDING"
	DefaultPriority      = "MEDIUM"
	DefaultCustomerName  = "Unknown"
	DefaultCustomerPhone = "N/A"
	ContactTypeMobile    = "MOBILE"
	ContactTypeEmail     = "EMAIL"
)
