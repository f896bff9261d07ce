// Package kpi holds the pure reductions behind the collection dashboards.
// Everything here takes already-fetched rows and returns plain view models;
// nothing touches the database.
package kpi

import "time"

// CaseRow is one kastle_banking.collection_cases row joined with its customer.
type CaseRow struct {
	CaseID           int64     `json:"case_id"`
	CaseNumber       string    `json:"case_number"`
	CustomerID       string    `json:"customer_id"`
	CustomerName     string    `json:"customer_name"`
	CustomerPhone    string    `json:"customer_phone"`
	AccountNumber    string    `json:"account_number"`
	TotalOutstanding float64   `json:"total_outstanding"`
	DaysPastDue      int       `json:"days_past_due"`
	CaseStatus       string    `json:"case_status"`
	Priority         string    `json:"priority"`
	AssignedTo       string    `json:"assigned_to"`
	BranchID         string    `json:"branch_id"`
	BucketName       string    `json:"bucket_name,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

// DailySummaryRow is one kastle_collection.daily_collection_summary row.
type DailySummaryRow struct {
	SummaryDate    time.Time `json:"summary_date"`
	BranchID       string    `json:"branch_id"`
	TeamID         string    `json:"team_id"`
	TeamName       string    `json:"team_name"`
	TotalDue       float64   `json:"total_due_amount"`
	TotalCollected float64   `json:"total_collected"`
	CollectionRate float64   `json:"collection_rate"`
}

type OfficerRow struct {
	OfficerID      string    `json:"officer_id"`
	OfficerName    string    `json:"officer_name"`
	OfficerType    string    `json:"officer_type"`
	TeamID         string    `json:"team_id"`
	Status         string    `json:"status"`
	DailyTarget    float64   `json:"daily_target"`
	DailyCollected float64   `json:"daily_collected"`
	LastActive     time.Time `json:"last_active"`
}

type OfficerMetricRow struct {
	OfficerID       string    `json:"officer_id"`
	OfficerName     string    `json:"officer_name"`
	OfficerType     string    `json:"officer_type"`
	MetricDate      time.Time `json:"metric_date"`
	AmountCollected float64   `json:"amount_collected"`
	CallsMade       int       `json:"calls_made"`
	ContactsMade    int       `json:"contacts_made"`
	PTPsObtained    int       `json:"ptps_obtained"`
	QualityScore    float64   `json:"quality_score"`
}

type InteractionRow struct {
	InteractionID       int64     `json:"interaction_id"`
	CaseID              int64     `json:"case_id"`
	InteractionType     string    `json:"interaction_type"`
	InteractionDatetime time.Time `json:"interaction_datetime"`
	Outcome             string    `json:"outcome"`
	Notes               string    `json:"notes"`
	OfficerName         string    `json:"officer_name"`
}

type PTPRow struct {
	PTPID          int64     `json:"ptp_id"`
	CaseID         int64     `json:"case_id"`
	PTPAmount      float64   `json:"ptp_amount"`
	PTPDate        time.Time `json:"ptp_date"`
	PTPType        string    `json:"ptp_type"`
	Status         string    `json:"status"`
	AmountReceived float64   `json:"amount_received"`
	OfficerName    string    `json:"officer_name"`
}

type CampaignRow struct {
	CampaignName   string  `json:"campaign_name"`
	CampaignType   string  `json:"campaign_type"`
	TargetRecovery float64 `json:"target_recovery"`
	ActualRecovery float64 `json:"actual_recovery"`
	SuccessRate    float64 `json:"success_rate"`
	ROI            float64 `json:"roi"`
}
