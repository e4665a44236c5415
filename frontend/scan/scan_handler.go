package scan

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"boxscan/infrastructure/boxtribute"
	"boxscan/models"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("write json response failed", slog.Any("err", err))
	}
}

func sessionFromRequest(store *SessionStore, w http.ResponseWriter, r *http.Request) (*Session, bool) {
	id := chi.URLParam(r, "sessionID")
	session, ok := store.Get(id)
	if !ok {
		http.Error(w, "scan session not found", http.StatusNotFound)
		return nil, false
	}
	return session, true
}

// OpenSessionCommandHandler opens a scanning session and returns its token.
func OpenSessionCommandHandler(store *SessionStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session := store.Open()
		writeJSON(w, http.StatusCreated, map[string]string{"token": session.ID})
	}
}

// CloseSessionCommandHandler closes the session and discards its state.
func CloseSessionCommandHandler(store *SessionStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store.Close(chi.URLParam(r, "sessionID"))
		w.WriteHeader(http.StatusNoContent)
	}
}

// ResolveCommandHandler resolves one scanned payload. In multi mode the box
// is appended to the session selection and rapid repeats of the same payload
// are dropped by the cool-down window.
func ResolveCommandHandler(store *SessionStore, resolver *Resolver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, ok := sessionFromRequest(store, w, r)
		if !ok {
			return
		}

		var req resolveRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}

		if req.Multi && !session.ShouldResolve(req.Value, time.Now()) {
			writeJSON(w, http.StatusOK, OutcomeView{Kind: "Debounced", Notice: "scan ignored: camera re-arming"})
			return
		}

		policy := boxtribute.NetworkOnly
		if req.Multi {
			policy = boxtribute.CacheFirst
		}

		outcome := resolver.Resolve(r.Context(), req.Value, policy)
		view := NewOutcomeView(outcome)

		if success, isSuccess := outcome.(Success); isSuccess && req.Multi {
			if session.Selection().Add(success.Box.Ref()) == AlreadyOnList {
				view.Notice = "box " + success.Box.LabelIdentifier + " is already on the list"
			}
			view.Selection = session.Selection().Refs()
		}

		writeJSON(w, http.StatusOK, view)
	}
}

// LookupCommandHandler resolves a typed label identifier. Malformed labels
// are rejected locally without querying the backend.
func LookupCommandHandler(resolver *Resolver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req lookupRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}

		outcome, err := resolver.Lookup(r.Context(), req.LabelIdentifier)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		writeJSON(w, http.StatusOK, NewOutcomeView(outcome))
	}
}

// SelectionQueryHandler returns the current selection in insertion order.
func SelectionQueryHandler(store *SessionStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, ok := sessionFromRequest(store, w, r)
		if !ok {
			return
		}
		refs := session.Selection().Refs()
		writeJSON(w, http.StatusOK, selectionView{Boxes: refs, Count: len(refs)})
	}
}

// UndoCommandHandler removes the last scanned box from the selection.
func UndoCommandHandler(store *SessionStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, ok := sessionFromRequest(store, w, r)
		if !ok {
			return
		}
		session.Selection().Undo()
		refs := session.Selection().Refs()
		writeJSON(w, http.StatusOK, selectionView{Boxes: refs, Count: len(refs)})
	}
}

// FlushCommandHandler empties the selection.
func FlushCommandHandler(store *SessionStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, ok := sessionFromRequest(store, w, r)
		if !ok {
			return
		}
		session.Selection().Flush()
		writeJSON(w, http.StatusOK, selectionView{Boxes: []models.BoxRef{}, Count: 0})
	}
}

// RemoveBoxesCommandHandler removes an explicit set of boxes, e.g. the failed
// partition after a bulk action.
func RemoveBoxesCommandHandler(store *SessionStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, ok := sessionFromRequest(store, w, r)
		if !ok {
			return
		}
		var req removeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		session.Selection().RemoveByIdentifiers(req.LabelIdentifiers)
		refs := session.Selection().Refs()
		writeJSON(w, http.StatusOK, selectionView{Boxes: refs, Count: len(refs)})
	}
}

// RemoveNonInStockCommandHandler is the one-click remediation before
// assigning the selection to a shipment.
func RemoveNonInStockCommandHandler(store *SessionStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, ok := sessionFromRequest(store, w, r)
		if !ok {
			return
		}
		session.Selection().RemoveWhere(func(ref models.BoxRef) bool {
			return ref.State != models.BoxStateInStock
		})
		refs := session.Selection().Refs()
		writeJSON(w, http.StatusOK, selectionView{Boxes: refs, Count: len(refs)})
	}
}
