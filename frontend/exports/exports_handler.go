package exports

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"boxscan/infrastructure/sqlite"
)

func filterFromRequest(r *http.Request) (logFilter, bool) {
	filter := logFilter{Action: strings.TrimSpace(r.URL.Query().Get("action"))}
	if raw := strings.TrimSpace(r.URL.Query().Get("user_id")); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			return logFilter{}, false
		}
		filter.UserID = id
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return logFilter{}, false
		}
		filter.Limit = n
	}
	return filter, true
}

// ActionLogQueryHandler lists recorded bulk-action and receiving outcomes,
// newest first, optionally filtered by action or user.
func ActionLogQueryHandler(db *sqlite.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter, ok := filterFromRequest(r)
		if !ok {
			http.Error(w, "invalid filter", http.StatusBadRequest)
			return
		}
		rows, err := listActionLogs(r.Context(), db, filter)
		if err != nil {
			slog.Error("list action logs failed", slog.Any("err", err))
			http.Error(w, "failed to load action log", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(rows); err != nil {
			slog.Error("write action log response failed", slog.Any("err", err))
		}
	}
}

// ActionLogCSVHandler downloads the action log as CSV.
func ActionLogCSVHandler(db *sqlite.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter, ok := filterFromRequest(r)
		if !ok {
			http.Error(w, "invalid filter", http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", "attachment; filename=action-log.csv")
		if err := writeActionLogCSV(r.Context(), db, w, filter); err != nil {
			http.Error(w, "failed to export csv", http.StatusInternalServerError)
			return
		}
	}
}
