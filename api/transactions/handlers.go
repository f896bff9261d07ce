package transactions

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"KastleBackOffice/api"
	"KastleBackOffice/api/collection"
	"KastleBackOffice/api/constants"
	"KastleBackOffice/internal/config"
	"KastleBackOffice/internal/validation"

	"github.com/gorilla/mux"
)

func RegisterRoutes(svc *Service) api.RouteRegistrar {
	return func(r *mux.Router) {
		sub := r.PathPrefix("/transactions").Subrouter()
		sub.HandleFunc("", GetTransactions(svc)).Methods(http.MethodGet)
		sub.HandleFunc("/stats", GetStats(svc)).Methods(http.MethodGet)
		sub.HandleFunc("/trends", GetTrends(svc)).Methods(http.MethodGet)
	}
}

type listQuery struct {
	Status string `query:"status" validate:"omitempty,max=32"`
	Type   string `query:"type" validate:"omitempty,max=32"`
	Search string `query:"q" validate:"omitempty,max=128"`
	From   string `query:"from" validate:"omitempty,datetime=2006-01-02"`
	To     string `query:"to" validate:"omitempty,datetime=2006-01-02"`
	Limit  int    `query:"limit" validate:"min=1,max=1000"`
}

// parseFilter turns the query into a Filter; to is inclusive of its day.
func parseFilter(r *http.Request, loc *time.Location) (Filter, error) {
	values := r.URL.Query()
	q := listQuery{
		Status: strings.ToUpper(strings.TrimSpace(values.Get("status"))),
		Type:   strings.ToUpper(strings.TrimSpace(values.Get("type"))),
		Search: strings.TrimSpace(values.Get("q")),
		From:   strings.TrimSpace(values.Get("from")),
		To:     strings.TrimSpace(values.Get("to")),
	}
	var err error
	if q.Limit, err = validation.QueryInt(values, "limit", config.DefaultTransactionLimit); err != nil {
		return Filter{}, err
	}
	if err := validation.Struct(q); err != nil {
		return Filter{}, err
	}

	f := Filter{Status: q.Status, Type: q.Type, Search: q.Search, Limit: q.Limit}
	if q.From != "" {
		f.From, _ = time.ParseInLocation(constants.DateFormat, q.From, loc)
	}
	if q.To != "" {
		to, _ := time.ParseInLocation(constants.DateFormat, q.To, loc)
		f.To = to.AddDate(0, 0, 1)
	}
	if !f.From.IsZero() && !f.To.IsZero() && !f.From.Before(f.To) {
		return Filter{}, errors.New(constants.ErrInvalidDateRange)
	}
	return f, nil
}

func GetTransactions(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f, err := parseFilter(r, svc.Location())
		if err != nil {
			api.RespondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
		rows, err := svc.List(r.Context(), f)
		extra := map[string]interface{}{
			constants.ValuePage: api.NewPage(f.Limit, 0, len(rows)),
		}
		var se *collection.SectionError
		if errors.As(err, &se) {
			extra[constants.ValueWarning] = constants.LoadFailed(se.Section)
		}
		api.RespondWithPayload(w, rows, extra)
	}
}

func GetStats(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data, err := svc.Stats(r.Context())
		collection.Respond(w, data, err)
	}
}

type trendsQuery struct {
	Days int `query:"days" validate:"min=1,max=90"`
}

func GetTrends(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var q trendsQuery
		var err error
		if q.Days, err = validation.QueryInt(r.URL.Query(), "days", config.TransactionTrendDays); err == nil {
			err = validation.Struct(q)
		}
		if err != nil {
			api.RespondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
		data, err := svc.Trends(r.Context(), q.Days)
		collection.Respond(w, data, err)
	}
}
