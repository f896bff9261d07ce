package collection

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"KastleBackOffice/api"
	"KastleBackOffice/api/collection/kpi"
	"KastleBackOffice/api/constants"
	"KastleBackOffice/internal/config"
	"KastleBackOffice/internal/validation"

	"github.com/gorilla/mux"
)

// RegisterRoutes mounts the collection dashboards under /collection.
func RegisterRoutes(svc *Service) api.RouteRegistrar {
	return func(r *mux.Router) {
		sub := r.PathPrefix("/collection").Subrouter()
		sub.HandleFunc("/overview", GetOverview(svc)).Methods(http.MethodGet)
		sub.HandleFunc("/cases", GetCases(svc)).Methods(http.MethodGet)
		sub.HandleFunc("/cases/{caseID}", GetCaseDetails(svc)).Methods(http.MethodGet)
		sub.HandleFunc("/performance", GetPerformance(svc)).Methods(http.MethodGet)
		sub.HandleFunc("/executive", GetExecutiveDashboard(svc)).Methods(http.MethodGet)
		sub.HandleFunc("/npf-trend", GetNPFTrend(svc)).Methods(http.MethodGet)
		sub.HandleFunc("/buckets", GetBucketDistribution(svc)).Methods(http.MethodGet)
		sub.HandleFunc("/top-defaulters", GetTopDefaulters(svc)).Methods(http.MethodGet)
		sub.HandleFunc("/branches", GetBranchPerformance(svc)).Methods(http.MethodGet)
		sub.HandleFunc("/portfolio-health", GetPortfolioHealth(svc)).Methods(http.MethodGet)
		sub.HandleFunc("/risk-indicators", GetRiskIndicators(svc)).Methods(http.MethodGet)
		sub.HandleFunc("/initiatives", GetStrategicInitiatives(svc)).Methods(http.MethodGet)
		sub.HandleFunc("/reports", GetReport(svc)).Methods(http.MethodGet)
		sub.HandleFunc("/reports/export", ExportReport(svc)).Methods(http.MethodGet)
		sub.HandleFunc("/analytics", GetAnalytics(svc)).Methods(http.MethodGet)
		sub.HandleFunc("/officers", GetOfficersPerformance(svc)).Methods(http.MethodGet)
		sub.HandleFunc("/officers/activity", GetOfficerActivity(svc)).Methods(http.MethodGet)
		sub.HandleFunc("/teams", GetTeamsPerformance(svc)).Methods(http.MethodGet)
	}
}

type periodQuery struct {
	Period string `query:"period" validate:"omitempty,oneof=daily weekly monthly quarterly"`
}

func parsePeriod(r *http.Request) (kpi.Period, error) {
	q := periodQuery{Period: strings.ToLower(strings.TrimSpace(r.URL.Query().Get("period")))}
	if err := validation.Struct(q); err != nil {
		return "", err
	}
	return kpi.ParsePeriod(q.Period), nil
}

type casesQuery struct {
	Status   string `query:"status" validate:"omitempty,max=32"`
	BranchID string `query:"branch_id" validate:"omitempty,max=64"`
	Search   string `query:"q" validate:"omitempty,max=128"`
	Limit    int    `query:"limit" validate:"min=1,max=1000"`
	Offset   int    `query:"offset" validate:"min=0"`
}

func parseCasesQuery(r *http.Request) (casesQuery, error) {
	values := r.URL.Query()
	q := casesQuery{
		Status:   strings.ToUpper(strings.TrimSpace(values.Get("status"))),
		BranchID: strings.TrimSpace(values.Get("branch_id")),
		Search:   strings.TrimSpace(values.Get("q")),
	}
	var err error
	if q.Limit, err = validation.QueryInt(values, "limit", config.DefaultCaseLimit); err != nil {
		return q, err
	}
	if q.Offset, err = validation.QueryInt(values, "offset", 0); err != nil {
		return q, err
	}
	return q, validation.Struct(q)
}

// Respond sends data; a section that fell back to its empty shape still
// answers 200 and carries a warning for the toast.
func Respond(w http.ResponseWriter, data interface{}, err error) {
	if err == nil {
		api.RespondWithData(w, data)
		return
	}
	warning := err.Error()
	var se *SectionError
	if errors.As(err, &se) {
		warning = constants.LoadFailed(se.Section)
	}
	api.RespondWithPayload(w, data, map[string]interface{}{constants.ValueWarning: warning})
}

// periodHandler covers the endpoints whose only input is ?period=.
func periodHandler[T any](load func(r *http.Request, p kpi.Period) (T, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := parsePeriod(r)
		if err != nil {
			api.RespondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
		data, err := load(r, p)
		Respond(w, data, err)
	}
}

func GetOverview(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		branch := strings.TrimSpace(r.URL.Query().Get("branch_id"))
		data, err := svc.Overview(r.Context(), OverviewFilter{BranchID: branch})
		Respond(w, data, err)
	}
}

func GetCases(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q, err := parseCasesQuery(r)
		if err != nil {
			api.RespondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
		cases, err := svc.Cases(r.Context(), CaseFilter{
			Status:   q.Status,
			BranchID: q.BranchID,
			Search:   q.Search,
			Limit:    q.Limit,
			Offset:   q.Offset,
		})
		extra := map[string]interface{}{
			constants.ValuePage: api.NewPage(q.Limit, q.Offset, len(cases)),
		}
		var se *SectionError
		if errors.As(err, &se) {
			extra[constants.ValueWarning] = constants.LoadFailed(se.Section)
		}
		api.RespondWithPayload(w, cases, extra)
	}
}

func GetCaseDetails(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caseID, err := strconv.ParseInt(mux.Vars(r)["caseID"], 10, 64)
		if err != nil || caseID <= 0 {
			api.RespondWithError(w, http.StatusBadRequest, constants.ErrInvalidCaseID)
			return
		}
		data, err := svc.CaseDetails(r.Context(), caseID)
		if errors.Is(err, ErrCaseNotFound) {
			api.RespondWithError(w, http.StatusNotFound, constants.ErrCaseNotFound)
			return
		}
		Respond(w, data, err)
	}
}

func GetPerformance(svc *Service) http.HandlerFunc {
	return periodHandler(func(r *http.Request, p kpi.Period) (Performance, error) {
		return svc.Performance(r.Context(), p)
	})
}

func GetExecutiveDashboard(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := parsePeriod(r)
		if err != nil {
			api.RespondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
		dash, failed := svc.ExecutiveDashboard(r.Context(), p)
		api.RespondWithPayload(w, dash, map[string]interface{}{constants.ValueFailures: failed})
	}
}

func GetNPFTrend(svc *Service) http.HandlerFunc {
	return periodHandler(func(r *http.Request, p kpi.Period) ([]kpi.NPFPoint, error) {
		return svc.NPFTrend(r.Context(), p)
	})
}

func GetBucketDistribution(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data, err := svc.BucketDistribution(r.Context())
		Respond(w, data, err)
	}
}

func GetTopDefaulters(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data, err := svc.TopDefaulters(r.Context())
		Respond(w, data, err)
	}
}

func GetBranchPerformance(svc *Service) http.HandlerFunc {
	return periodHandler(func(r *http.Request, p kpi.Period) ([]kpi.BranchPerformance, error) {
		return svc.BranchPerformance(r.Context(), p)
	})
}

func GetPortfolioHealth(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data, err := svc.PortfolioHealth(r.Context())
		Respond(w, data, err)
	}
}

func GetRiskIndicators(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data, err := svc.RiskIndicators(r.Context())
		Respond(w, data, err)
	}
}

func GetStrategicInitiatives(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		api.RespondWithData(w, svc.StrategicInitiatives())
	}
}

func GetReport(svc *Service) http.HandlerFunc {
	return periodHandler(func(r *http.Request, p kpi.Period) (Report, error) {
		return svc.Report(r.Context(), p)
	})
}

func GetAnalytics(svc *Service) http.HandlerFunc {
	return periodHandler(func(r *http.Request, p kpi.Period) (Analytics, error) {
		return svc.Analytics(r.Context(), p)
	})
}

func GetOfficersPerformance(svc *Service) http.HandlerFunc {
	return periodHandler(func(r *http.Request, p kpi.Period) ([]kpi.OfficerPerformance, error) {
		return svc.OfficersPerformance(r.Context(), p)
	})
}

func GetTeamsPerformance(svc *Service) http.HandlerFunc {
	return periodHandler(func(r *http.Request, p kpi.Period) ([]kpi.TeamPerformance, error) {
		return svc.TeamsPerformance(r.Context(), p)
	})
}

func GetOfficerActivity(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data, err := svc.OfficerActivity(r.Context())
		Respond(w, data, err)
	}
}
