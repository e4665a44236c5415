package bulk

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"boxscan/frontend/scan"
	sharedContext "boxscan/frontend/shared/context"
	"boxscan/infrastructure/actionlog"
	"boxscan/infrastructure/sqlite"
	"boxscan/models"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("write json response failed", slog.Any("err", err))
	}
}

func scanSession(store *scan.SessionStore, w http.ResponseWriter, r *http.Request) (*scan.Session, bool) {
	session, ok := store.Get(chi.URLParam(r, "sessionID"))
	if !ok {
		http.Error(w, "scan session not found", http.StatusNotFound)
		return nil, false
	}
	return session, true
}

func currentUserID(r *http.Request) int64 {
	if s, ok := sharedContext.GetSessionFromContext(r.Context()); ok {
		return s.UserID
	}
	return 0
}

// writeActionError maps executor errors onto HTTP statuses.
func writeActionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrEmptySelection), errors.Is(err, ErrNoTagsSelected):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrWrongShipmentState):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrNotAuthorized):
		http.Error(w, err.Error(), http.StatusForbidden)
	case errors.Is(err, ErrNetwork):
		http.Error(w, err.Error(), http.StatusBadGateway)
	default:
		slog.Error("bulk action failed", slog.Any("err", err))
		http.Error(w, "bulk action failed", http.StatusInternalServerError)
	}
}

func record(r *http.Request, db *sqlite.DB, logs *actionlog.Service, action, targetID string, res Result, actionErr error) {
	// Local validation failures never left the process; nothing to log.
	if errors.Is(actionErr, ErrEmptySelection) || errors.Is(actionErr, ErrNoTagsSelected) {
		return
	}
	entry := actionlog.Entry{
		UserID:    currentUserID(r),
		Action:    action,
		TargetID:  targetID,
		Requested: res.Requested,
		Succeeded: res.Succeeded,
		Failed:    res.Failed,
		Err:       actionErr,
	}
	if err := logs.Record(r.Context(), db, entry); err != nil {
		slog.Error("record action log failed", slog.String("action", action), slog.Any("err", err))
	}
}

// MoveBoxesCommandHandler moves the whole selection to one location. Boxes
// that were moved leave the selection; failed ones stay on it for a retry.
func MoveBoxesCommandHandler(store *scan.SessionStore, exec *Executor, logs *actionlog.Service, db *sqlite.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, ok := scanSession(store, w, r)
		if !ok {
			return
		}
		var req moveRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}

		labels := session.Selection().Labels()
		res, err := exec.Move(r.Context(), labels, req.LocationID)
		record(r, db, logs, actionlog.ActionMoveBoxes, strconv.FormatInt(req.LocationID, 10), res, err)
		if err != nil {
			writeActionError(w, err)
			return
		}

		session.Selection().RemoveByIdentifiers(res.Succeeded)
		writeJSON(w, http.StatusOK, resultView{
			Requested: res.Requested,
			Succeeded: res.Succeeded,
			Failed:    res.Failed,
			Selection: session.Selection().Refs(),
		})
	}
}

// AssignTagsCommandHandler adds tags to the whole selection. The selection is
// left untouched so further actions can follow on the same boxes.
func AssignTagsCommandHandler(store *scan.SessionStore, exec *Executor, logs *actionlog.Service, db *sqlite.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, ok := scanSession(store, w, r)
		if !ok {
			return
		}
		var req tagRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}

		labels := session.Selection().Labels()
		res, err := exec.Tag(r.Context(), labels, req.TagIDs)
		record(r, db, logs, actionlog.ActionTagBoxes, "", res, err)
		if err != nil {
			writeActionError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, resultView{
			Requested: res.Requested,
			Succeeded: res.Succeeded,
			Failed:    res.Failed,
			Selection: session.Selection().Refs(),
		})
	}
}

// AssignToShipmentCommandHandler adds the selection to a Preparing shipment.
// Boxes that are not InStock block the whole action; the response names them
// and points at the endpoint that removes them in one call.
func AssignToShipmentCommandHandler(store *scan.SessionStore, exec *Executor, logs *actionlog.Service, db *sqlite.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, ok := scanSession(store, w, r)
		if !ok {
			return
		}
		var req assignRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}

		var blocking []string
		for _, ref := range session.Selection().Refs() {
			if ref.State != models.BoxStateInStock {
				blocking = append(blocking, ref.LabelIdentifier)
			}
		}
		if len(blocking) > 0 {
			writeJSON(w, http.StatusConflict, blockedView{
				Error:           "only InStock boxes can be assigned to a shipment",
				BlockingBoxes:   blocking,
				RemediationPath: "/app/scan/sessions/" + session.ID + "/selection/remove-non-instock",
			})
			return
		}

		labels := session.Selection().Labels()
		res, err := exec.AssignToShipment(r.Context(), req.ShipmentID, labels)
		record(r, db, logs, actionlog.ActionAssignToShipment, strconv.FormatInt(req.ShipmentID, 10), res, err)
		if err != nil {
			writeActionError(w, err)
			return
		}

		session.Selection().RemoveByIdentifiers(res.Succeeded)
		writeJSON(w, http.StatusOK, resultView{
			Requested: res.Requested,
			Succeeded: res.Succeeded,
			Failed:    res.Failed,
			Selection: session.Selection().Refs(),
		})
	}
}
