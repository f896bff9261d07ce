package collection

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"KastleBackOffice/api"
	"KastleBackOffice/api/collection/kpi"
	"KastleBackOffice/api/constants"

	"github.com/xuri/excelize/v2"
)

const (
	SheetSummary  = "Summary"
	SheetOfficers = "Officers"
	SheetTeams    = "Teams"
	SheetBuckets  = "Buckets"
)

// BuildReportWorkbook collects the report sections for the period into one
// workbook. Sections that failed to load are written empty; their errors are
// joined into the returned error alongside a usable file.
func (s *Service) BuildReportWorkbook(ctx context.Context, p kpi.Period) (*excelize.File, error) {
	report, reportErr := s.Report(ctx, p)
	officers, officersErr := s.OfficersPerformance(ctx, p)
	teams, teamsErr := s.TeamsPerformance(ctx, p)
	buckets, bucketsErr := s.BucketDistribution(ctx)
	loadErr := errors.Join(reportErr, officersErr, teamsErr, bucketsErr)

	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", SheetSummary); err != nil {
		f.Close()
		return nil, err
	}
	for _, name := range []string{SheetOfficers, SheetTeams, SheetBuckets} {
		if _, err := f.NewSheet(name); err != nil {
			f.Close()
			return nil, err
		}
	}
	header, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		f.Close()
		return nil, err
	}

	summary := [][]interface{}{
		{"Metric", "Value"},
		{"Period", string(report.Period)},
		{"Since", report.Since.Format(constants.DateFormat)},
		{"Total Collected", report.TotalCollected},
		{"Collection Rate", report.CollectionRate},
		{"Total Interactions", report.TotalInteractions},
		{"Active Campaigns", report.ActiveCampaigns},
		{"Total Officers", report.TotalOfficers},
		{"Generated At", s.now().Format(constants.DateTimeFormat)},
	}

	officerRows := [][]interface{}{{"Officer ID", "Officer Name", "Type", "Collected", "Calls", "Contacts", "Contact Rate", "PTPs", "Quality Score"}}
	for _, o := range officers {
		officerRows = append(officerRows, []interface{}{o.OfficerID, o.OfficerName, o.OfficerType, o.TotalCollected, o.TotalCalls, o.TotalContacts, o.ContactRate, o.TotalPTPs, o.QualityScore})
	}

	teamRows := [][]interface{}{{"Team ID", "Team Name", "Total Due", "Total Collected", "Collection Rate"}}
	for _, t := range teams {
		teamRows = append(teamRows, []interface{}{t.TeamID, t.TeamName, t.TotalDue, t.TotalCollected, t.CollectionRate})
	}

	bucketRows := [][]interface{}{{"Bucket", "Cases", "Amount"}}
	for _, b := range buckets {
		bucketRows = append(bucketRows, []interface{}{b.Bucket, b.Count, b.Amount})
	}

	for sheet, rows := range map[string][][]interface{}{
		SheetSummary:  summary,
		SheetOfficers: officerRows,
		SheetTeams:    teamRows,
		SheetBuckets:  bucketRows,
	} {
		if err := writeSheet(f, sheet, rows, header); err != nil {
			f.Close()
			return nil, fmt.Errorf("write %s sheet: %w", sheet, err)
		}
	}
	f.SetActiveSheet(0)
	return f, loadErr
}

func writeSheet(f *excelize.File, sheet string, rows [][]interface{}, headerStyle int) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	if len(rows) > 0 {
		if err := f.SetRowStyle(sheet, 1, 1, headerStyle); err != nil {
			return err
		}
		last, err := excelize.ColumnNumberToName(len(rows[0]))
		if err != nil {
			return err
		}
		if err := f.SetColWidth(sheet, "A", last, 18); err != nil {
			return err
		}
	}
	return nil
}

func ExportReport(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := parsePeriod(r)
		if err != nil {
			api.RespondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
		f, err := svc.BuildReportWorkbook(r.Context(), p)
		if f == nil {
			api.LogError("build report workbook: %v", err)
			api.RespondWithError(w, http.StatusInternalServerError, constants.ErrExportFailed)
			return
		}
		defer f.Close()
		if err != nil {
			// Partial data is still exported; the failures were already notified.
			api.LogInfo("report export with missing sections: %v", err)
		}

		filename := fmt.Sprintf("collection-report-%s-%s.xlsx", p, svc.now().Format(constants.DateFormat))
		w.Header().Set(constants.ContentTypeText, constants.ContentTypeXLSX)
		w.Header().Set(constants.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))
		if err := f.Write(w); err != nil {
			api.LogError("write report workbook: %v", err)
		}
	}
}
