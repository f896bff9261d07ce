package api

import (
	"encoding/json"
	"log"
	"net/http"

	"KastleBackOffice/api/constants"
)

// writeJSON sets the content type before the status line; headers written
// after WriteHeader are dropped.
func writeJSON(w http.ResponseWriter, status int, body map[string]interface{}) {
	w.Header().Set(constants.ContentTypeText, constants.ContentTypeJSON)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Println("[ERROR] encode response:", err)
	}
}

// Error response helper
func RespondWithError(w http.ResponseWriter, status int, errMsg string) {
	log.Println("[ERROR]", errMsg)
	writeJSON(w, status, map[string]interface{}{
		constants.ValueSuccess: false,
		constants.ValueError:   errMsg,
	})
}

// RespondWithData sends {"success":true,"data":payload}. A nil slice is
// still rendered as an empty list so the client can show "no data".
func RespondWithData(w http.ResponseWriter, payload interface{}) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		constants.ValueSuccess: true,
		constants.ValueData:    payload,
	})
}

// RespondWithPayload sends data plus extra top-level keys (page, warning, failed_sections).
func RespondWithPayload(w http.ResponseWriter, payload interface{}, extra map[string]interface{}) {
	resp := map[string]interface{}{
		constants.ValueSuccess: true,
		constants.ValueData:    payload,
	}
	for k, v := range extra {
		if k == constants.ValueSuccess || k == constants.ValueData {
			continue
		}
		resp[k] = v
	}
	writeJSON(w, http.StatusOK, resp)
}

// Page is the pagination envelope returned next to list payloads.
type Page struct {
	Limit    int  `json:"limit"`
	Offset   int  `json:"offset"`
	Returned int  `json:"returned"`
	HasMore  bool `json:"has_more"`
}

// NewPage assumes the store was asked for limit rows; a full page means
// there may be more.
func NewPage(limit, offset, returned int) Page {
	return Page{Limit: limit, Offset: offset, Returned: returned, HasMore: limit > 0 && returned >= limit}
}

// LogInfo logs an informational message (wrapper for consistent logging)
func LogInfo(msg string, args ...interface{}) {
	if len(args) > 0 {
		log.Printf("[INFO] "+msg, args...)
	} else {
		log.Println("[INFO]", msg)
	}
}

// LogError logs an error message (wrapper for consistent logging)
func LogError(msg string, args ...interface{}) {
	if len(args) > 0 {
		log.Printf("[ERROR] "+msg, args...)
	} else {
		log.Println("[ERROR]", msg)
	}
}
