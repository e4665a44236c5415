package reconcile

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	sharedContext "boxscan/frontend/shared/context"
	"boxscan/infrastructure/actionlog"
	"boxscan/infrastructure/boxtribute"
	"boxscan/infrastructure/sqlite"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("write json response failed", slog.Any("err", err))
	}
}

func sessionFromRequest(store *SessionStore, w http.ResponseWriter, r *http.Request) (*Session, bool) {
	session, ok := store.Get(chi.URLParam(r, "sessionID"))
	if !ok {
		http.Error(w, "receiving session not found", http.StatusNotFound)
		return nil, false
	}
	return session, true
}

func reconciliationFromRequest(store *SessionStore, w http.ResponseWriter, r *http.Request) (*Session, *Reconciliation, bool) {
	session, ok := sessionFromRequest(store, w, r)
	if !ok {
		return nil, nil, false
	}
	detailID, err := strconv.ParseInt(chi.URLParam(r, "detailID"), 10, 64)
	if err != nil {
		http.Error(w, "invalid detail id", http.StatusBadRequest)
		return nil, nil, false
	}
	rec, err := session.Reconciliation(detailID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return nil, nil, false
	}
	return session, rec, true
}

func writeEngineError(w http.ResponseWriter, rec *Reconciliation, err error) {
	switch {
	case errors.Is(err, ErrMatchRequired), errors.Is(err, ErrLocationRequired), errors.Is(err, ErrInvalidMatch):
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error(), "step": rec.Step()})
	case errors.Is(err, ErrFinished):
		http.Error(w, err.Error(), http.StatusConflict)
	case boxtribute.IsForbidden(err):
		http.Error(w, "not authorized for this shipment", http.StatusForbidden)
	case boxtribute.IsBadUserInput(err):
		http.Error(w, "shipment is not in a receivable state", http.StatusBadRequest)
	case boxtribute.IsTransport(err):
		http.Error(w, "backend unreachable", http.StatusBadGateway)
	default:
		slog.Error("reconciliation failed", slog.Any("err", err))
		http.Error(w, "reconciliation failed", http.StatusInternalServerError)
	}
}

func record(r *http.Request, db *sqlite.DB, logs *actionlog.Service, action string, rec *Reconciliation, session *Session, actionErr error) {
	label := ""
	if rec.Detail().Box != nil {
		label = rec.Detail().Box.LabelIdentifier
	}
	userID := int64(0)
	if s, ok := sharedContext.GetSessionFromContext(r.Context()); ok {
		userID = s.UserID
	}
	entry := actionlog.Entry{
		UserID:    userID,
		Action:    action,
		TargetID:  strconv.FormatInt(session.ShipmentID, 10),
		Requested: []string{label},
		Err:       actionErr,
	}
	if actionErr == nil {
		entry.Succeeded = []string{label}
	} else {
		entry.Failed = []string{label}
	}
	if err := logs.Record(r.Context(), db, entry); err != nil {
		slog.Error("record action log failed", slog.String("action", action), slog.Any("err", err))
	}
}

// OpenSessionCommandHandler fetches the shipment and opens a receiving
// session over it.
func OpenSessionCommandHandler(store *SessionStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req openRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}

		session, err := store.Open(r.Context(), req.ShipmentID)
		if err != nil {
			switch {
			case boxtribute.IsForbidden(err):
				http.Error(w, "not authorized for this shipment", http.StatusForbidden)
			case boxtribute.IsTransport(err):
				http.Error(w, "backend unreachable", http.StatusBadGateway)
			default:
				slog.Error("open receiving session failed", slog.Any("err", err))
				http.Error(w, "open receiving session failed", http.StatusInternalServerError)
			}
			return
		}
		writeJSON(w, http.StatusCreated, sessionView{Token: session.ID, Shipment: session.Shipment()})
	}
}

// CloseSessionCommandHandler closes the session and discards its drafts.
func CloseSessionCommandHandler(store *SessionStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store.Close(chi.URLParam(r, "sessionID"))
		w.WriteHeader(http.StatusNoContent)
	}
}

// StateQueryHandler returns one box's current step and form pre-fill.
func StateQueryHandler(store *SessionStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, rec, ok := reconciliationFromRequest(store, w, r)
		if !ok {
			return
		}
		writeJSON(w, http.StatusOK, newStateView(rec))
	}
}

// SubmitMatchCommandHandler confirms a product/size/quantity match.
func SubmitMatchCommandHandler(store *SessionStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, rec, ok := reconciliationFromRequest(store, w, r)
		if !ok {
			return
		}
		var req matchRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		if err := rec.SubmitMatch(MatchDraft(req)); err != nil {
			writeEngineError(w, rec, err)
			return
		}
		writeJSON(w, http.StatusOK, newStateView(rec))
	}
}

// SubmitLocationCommandHandler marks the box received at a location.
func SubmitLocationCommandHandler(store *SessionStore, logs *actionlog.Service, db *sqlite.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, rec, ok := reconciliationFromRequest(store, w, r)
		if !ok {
			return
		}
		var req locationRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}

		err := rec.SubmitLocation(r.Context(), req.LocationID)
		if err == nil || !isLocalError(err) {
			record(r, db, logs, actionlog.ActionReceiveBox, rec, session, err)
		}
		if err != nil {
			writeEngineError(w, rec, err)
			return
		}
		writeJSON(w, http.StatusOK, newStateView(rec))
	}
}

// NotDeliveredCommandHandler marks the box lost in transit.
func NotDeliveredCommandHandler(store *SessionStore, logs *actionlog.Service, db *sqlite.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, rec, ok := reconciliationFromRequest(store, w, r)
		if !ok {
			return
		}

		err := rec.MarkNotDelivered(r.Context())
		if err == nil || !isLocalError(err) {
			record(r, db, logs, actionlog.ActionMarkNotDelivered, rec, session, err)
		}
		if err != nil {
			writeEngineError(w, rec, err)
			return
		}
		writeJSON(w, http.StatusOK, newStateView(rec))
	}
}

// isLocalError reports whether the error never left the process, so nothing
// is worth logging to the action log.
func isLocalError(err error) bool {
	return errors.Is(err, ErrMatchRequired) ||
		errors.Is(err, ErrLocationRequired) ||
		errors.Is(err, ErrInvalidMatch) ||
		errors.Is(err, ErrFinished)
}
