package http

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"boxscan/frontend/bulk"
	"boxscan/frontend/exports"
	"boxscan/frontend/labels"
	"boxscan/frontend/login"
	"boxscan/frontend/reconcile"
	"boxscan/frontend/scan"
	"boxscan/infrastructure/rbac"
)

// RegisterLoginRoutes registers login/logout routes.
func (s *Server) RegisterLoginRoutes() {
	s.router.Get("/login", login.GetLoginScreenHandler)
	s.router.Post("/login", login.CreateLoginHandler(s.DB, s.SessionCache, s.UserCache))
	s.router.Post("/logout", login.LogoutHandler(s.DB, s.SessionCache))
}

// RegisterScanRoutes registers the scanning session surface: resolution,
// manual lookup, selection management and the bulk actions over a selection.
func (s *Server) RegisterScanRoutes(r chi.Router) {
	resolver := scan.NewResolver(s.Boxtribute)
	executor := bulk.NewExecutor(s.Boxtribute)

	for _, role := range []string{rbac.RoleCoordinator, rbac.RoleVolunteer} {
		s.Rbac.Add(role, "SCAN_SESSION_OPEN", http.MethodPost, "/app/scan/sessions")
		s.Rbac.Add(role, "SCAN_SESSION_CLOSE", http.MethodDelete, "/app/scan/sessions/*")
		s.Rbac.Add(role, "SCAN_RESOLVE", http.MethodPost, "/app/scan/sessions/*/resolve")
		s.Rbac.Add(role, "SCAN_LOOKUP", http.MethodPost, "/app/scan/lookup")
		s.Rbac.Add(role, "SCAN_SELECTION_VIEW", http.MethodGet, "/app/scan/sessions/*/selection")
		s.Rbac.Add(role, "SCAN_SELECTION_EDIT", http.MethodPost, "/app/scan/sessions/*/selection/*")
		s.Rbac.Add(role, "SCAN_ACTION_MOVE", http.MethodPost, "/app/scan/sessions/*/actions/move")
		s.Rbac.Add(role, "SCAN_ACTION_TAG", http.MethodPost, "/app/scan/sessions/*/actions/tag")
	}
	s.Rbac.Add(rbac.RoleCoordinator, "SCAN_ACTION_ASSIGN", http.MethodPost, "/app/scan/sessions/*/actions/assign-to-shipment")

	r.Post("/scan/sessions", scan.OpenSessionCommandHandler(s.ScanSessions))
	r.Delete("/scan/sessions/{sessionID}", scan.CloseSessionCommandHandler(s.ScanSessions))
	r.Post("/scan/sessions/{sessionID}/resolve", scan.ResolveCommandHandler(s.ScanSessions, resolver))
	r.Post("/scan/lookup", scan.LookupCommandHandler(resolver))
	r.Get("/scan/sessions/{sessionID}/selection", scan.SelectionQueryHandler(s.ScanSessions))
	r.Post("/scan/sessions/{sessionID}/selection/undo", scan.UndoCommandHandler(s.ScanSessions))
	r.Post("/scan/sessions/{sessionID}/selection/flush", scan.FlushCommandHandler(s.ScanSessions))
	r.Post("/scan/sessions/{sessionID}/selection/remove", scan.RemoveBoxesCommandHandler(s.ScanSessions))
	r.Post("/scan/sessions/{sessionID}/selection/remove-non-instock", scan.RemoveNonInStockCommandHandler(s.ScanSessions))

	r.Post("/scan/sessions/{sessionID}/actions/move", bulk.MoveBoxesCommandHandler(s.ScanSessions, executor, s.ActionLog, s.DB))
	r.Post("/scan/sessions/{sessionID}/actions/tag", bulk.AssignTagsCommandHandler(s.ScanSessions, executor, s.ActionLog, s.DB))
	r.Post("/scan/sessions/{sessionID}/actions/assign-to-shipment", bulk.AssignToShipmentCommandHandler(s.ScanSessions, executor, s.ActionLog, s.DB))
}

// RegisterReceiveRoutes registers the shipment receiving workflow.
func (s *Server) RegisterReceiveRoutes(r chi.Router) {
	for _, role := range []string{rbac.RoleCoordinator, rbac.RoleVolunteer} {
		s.Rbac.Add(role, "RECEIVE_SESSION_OPEN", http.MethodPost, "/app/receive/sessions")
		s.Rbac.Add(role, "RECEIVE_SESSION_CLOSE", http.MethodDelete, "/app/receive/sessions/*")
		s.Rbac.Add(role, "RECEIVE_STATE_VIEW", http.MethodGet, "/app/receive/sessions/*/details/*")
		s.Rbac.Add(role, "RECEIVE_SUBMIT", http.MethodPost, "/app/receive/sessions/*/details/*/*")
	}

	r.Post("/receive/sessions", reconcile.OpenSessionCommandHandler(s.ReceiveSessions))
	r.Delete("/receive/sessions/{sessionID}", reconcile.CloseSessionCommandHandler(s.ReceiveSessions))
	r.Get("/receive/sessions/{sessionID}/details/{detailID}", reconcile.StateQueryHandler(s.ReceiveSessions))
	r.Post("/receive/sessions/{sessionID}/details/{detailID}/match", reconcile.SubmitMatchCommandHandler(s.ReceiveSessions))
	r.Post("/receive/sessions/{sessionID}/details/{detailID}/location", reconcile.SubmitLocationCommandHandler(s.ReceiveSessions, s.ActionLog, s.DB))
	r.Post("/receive/sessions/{sessionID}/details/{detailID}/not-delivered", reconcile.NotDeliveredCommandHandler(s.ReceiveSessions, s.ActionLog, s.DB))
}

// RegisterLabelRoutes registers QR label printing.
func (s *Server) RegisterLabelRoutes(r chi.Router) {
	s.Rbac.Add(rbac.RoleCoordinator, "LABELS_SHEET", http.MethodPost, "/app/labels/sheet")
	r.Post("/labels/sheet", labels.SheetCommandHandler(s.qrBaseURL))
}

// RegisterExportRoutes registers action-log listing and export.
func (s *Server) RegisterExportRoutes(r chi.Router) {
	s.Rbac.Add(rbac.RoleCoordinator, "EXPORT_ACTION_LOG_VIEW", http.MethodGet, "/app/exports/action-log")
	r.Get("/exports/action-log", exports.ActionLogQueryHandler(s.DB))
	s.Rbac.Add(rbac.RoleCoordinator, "EXPORT_ACTION_LOG_CSV", http.MethodGet, "/app/exports/action-log.csv")
	r.Get("/exports/action-log.csv", exports.ActionLogCSVHandler(s.DB))
}

// RegisterAdminRoutes registers admin-only user management.
func (s *Server) RegisterAdminRoutes(r chi.Router) {
	r.Post("/admin/users", s.createUserHandler())
}

func (s *Server) createUserHandler() http.HandlerFunc {
	type request struct {
		Username string `json:"username"`
		Role     string `json:"role"`
		Password string `json:"password"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var req request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		role := strings.TrimSpace(req.Role)
		switch role {
		case rbac.RoleAdmin, rbac.RoleCoordinator, rbac.RoleVolunteer:
		default:
			http.Error(w, "unknown role", http.StatusBadRequest)
			return
		}
		if err := login.UpsertUserPasswordHash(r.Context(), s.DB, req.Username, role, req.Password); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusCreated)
	}
}
