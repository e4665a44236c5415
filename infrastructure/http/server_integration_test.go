package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"

	"github.com/uptrace/bun"

	"boxscan/frontend/login"
	"boxscan/infrastructure/actionlog"
	"boxscan/infrastructure/boxtribute"
	"boxscan/infrastructure/cache"
	"boxscan/infrastructure/rbac"
	"boxscan/infrastructure/sqlite"
)

// fakeBackend is a scripted GraphQL endpoint keyed by operation name.
type fakeBackend struct {
	responses map[string]string
}

func (f *fakeBackend) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			OperationName string `json:"operationName"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		body, ok := f.responses[req.OperationName]
		if !ok {
			http.Error(w, "unexpected operation "+req.OperationName, http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}
}

const fullBoxJSON = `{
  "__typename": "Box",
  "labelIdentifier": "123456",
  "state": "InStock",
  "numberOfItems": 40,
  "product": {"id": 9, "name": "Socks", "sizeRange": {"id": 1, "label": "Mixed", "sizes": [{"id": 3, "label": "M"}]}},
  "size": {"id": 3, "label": "M"},
  "location": {"id": 3, "name": "WH1", "base": {"id": 2, "name": "Lesvos", "organisation": {"id": 1, "name": "BoxAid"}}},
  "tags": []
}`

type integrationEnv struct {
	server  *httptest.Server
	backend *fakeBackend
	db      *sqlite.DB
}

func setupIntegrationServer(t *testing.T) (*integrationEnv, *http.Client) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "server-integration.db")
	db, err := sqlite.OpenDB(dbPath)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := sqlite.ApplyMigrations(context.Background(), db, ""); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}

	for _, u := range []struct{ name, role, pwd string }{
		{"admin", rbac.RoleAdmin, "Admin123!Boxscan"},
		{"coord1", rbac.RoleCoordinator, "Coord123!Boxscan"},
		{"vol1", rbac.RoleVolunteer, "Volunteer123!Bx"},
	} {
		if err := login.UpsertUserPasswordHash(context.Background(), db, u.name, u.role, u.pwd); err != nil {
			t.Fatalf("seed user %s: %v", u.name, err)
		}
	}

	backend := &fakeBackend{responses: map[string]string{
		"ResolveQrCode": `{"data": {"qrCode": {"__typename": "QrCode", "code": "aabbccdd11223344", "box": ` + fullBoxJSON + `}}}`,
		"MoveBoxes":     `{"data": {"moveBox123456": {"labelIdentifier": "123456", "state": "InStock", "location": {"id": 7, "name": "WH2"}}}}`,
		"Shipment": `{"data": {"shipment": {"id": 5, "state": "Receiving",
		  "sourceBase": {"id": 8, "name": "Thessaloniki", "organisation": {"id": 2, "name": "AidOrg"}},
		  "targetBase": {"id": 2, "name": "Lesvos", "organisation": {"id": 1, "name": "BoxAid"}},
		  "details": [{"id": 31, "removedOn": null, "sourceQuantity": 10,
		    "sourceProduct": {"id": 20, "name": "Jackets", "sizeRange": null},
		    "sourceSize": {"id": 3, "label": "M"},
		    "autoMatchingTargetProduct": {"id": 50, "name": "Jackets", "sizeRange": {"id": 1, "label": "Mixed", "sizes": [{"id": 3, "label": "M"}]}},
		    "box": ` + fullBoxJSON + `}]}}}`,
		"UpdateShipmentReceiving": `{"data": {"updateShipmentWhenReceiving": {"id": 5, "state": "Receiving", "details": []}}}`,
	}}
	backendServer := httptest.NewServer(backend.handler())

	sessionCache := cache.NewUserSessionCache()
	userCache := cache.NewUserCache()
	rbacCache := cache.NewRbacRolesCache()
	rbacSvc := rbac.New(rbacCache)

	s := NewServer(Config{
		Addr:          "127.0.0.1:0",
		LegacyBaseURL: "https://legacy.example.org",
		QRBaseURL:     "https://staging.example.org/mobile.php",
	}, db, sessionCache, userCache, rbacSvc, rbacCache, actionlog.NewService(), boxtribute.NewClient(backendServer.URL, "test-token"))

	ts := httptest.NewServer(s.router)
	env := &integrationEnv{server: ts, backend: backend, db: db}
	t.Cleanup(func() {
		env.server.Close()
		backendServer.Close()
		_ = env.db.Close()
	})
	return env, newHTTPClient(t)
}

func newHTTPClient(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookie jar: %v", err)
	}
	return &http.Client{
		Jar: jar,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

func csrfToken(t *testing.T, client *http.Client, baseURL string) string {
	t.Helper()
	u, err := url.Parse(baseURL)
	if err != nil {
		t.Fatalf("parse base url: %v", err)
	}
	for _, c := range client.Jar.Cookies(u) {
		if c.Name == "X-CSRF-Token" {
			return c.Value
		}
	}
	return ""
}

func get(t *testing.T, client *http.Client, baseURL, path string) *http.Response {
	t.Helper()
	resp, err := client.Get(baseURL + path)
	if err != nil {
		t.Fatalf("GET %s failed: %v", path, err)
	}
	return resp
}

func postJSON(t *testing.T, client *http.Client, baseURL, path string, payload any) *http.Response {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	req, err := http.NewRequest(http.MethodPost, baseURL+path, bytes.NewReader(body))
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token := csrfToken(t, client, baseURL); token != "" {
		req.Header.Set("X-CSRF-Token", token)
	}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("POST %s failed: %v", path, err)
	}
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, out any) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func loginAs(t *testing.T, client *http.Client, baseURL, username, password string) {
	t.Helper()

	resp := get(t, client, baseURL, "/login")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected login page 200, got %d", resp.StatusCode)
	}
	_ = resp.Body.Close()

	data := url.Values{"username": {username}, "password": {password}}
	if token := csrfToken(t, client, baseURL); token != "" {
		data.Set("_csrf", token)
	}
	resp, err := client.PostForm(baseURL+"/login", data)
	if err != nil {
		t.Fatalf("POST /login failed: %v", err)
	}
	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("expected login 303, got %d", resp.StatusCode)
	}
	if loc := resp.Header.Get("Location"); strings.Contains(loc, "error=") {
		t.Fatalf("login rejected: %s", loc)
	}
	_ = resp.Body.Close()
}

func countActionLogs(t *testing.T, db *sqlite.DB, action string) int64 {
	t.Helper()
	var count int64
	err := db.WithReadTx(context.Background(), func(ctx context.Context, tx bun.Tx) error {
		return tx.NewRaw(`SELECT COUNT(*) FROM action_logs WHERE action = ?`, action).Scan(ctx, &count)
	})
	if err != nil {
		t.Fatalf("count action logs: %v", err)
	}
	return count
}

func TestScanResolveAndMoveFlow(t *testing.T) {
	env, client := setupIntegrationServer(t)
	loginAs(t, client, env.server.URL, "vol1", "Volunteer123!Bx")

	var opened struct {
		Token string `json:"token"`
	}
	resp := postJSON(t, client, env.server.URL, "/app/scan/sessions", map[string]any{})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	decodeBody(t, resp, &opened)
	if opened.Token == "" {
		t.Fatal("expected a session token")
	}
	base := "/app/scan/sessions/" + opened.Token

	var resolved struct {
		Kind      string `json:"kind"`
		Selection []struct {
			LabelIdentifier string `json:"labelIdentifier"`
		} `json:"selection"`
	}
	resp = postJSON(t, client, env.server.URL, base+"/resolve", map[string]any{"value": "aabbccdd11223344", "multi": true})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	decodeBody(t, resp, &resolved)
	if resolved.Kind != "Success" {
		t.Fatalf("expected Success outcome, got %s", resolved.Kind)
	}
	if len(resolved.Selection) != 1 || resolved.Selection[0].LabelIdentifier != "123456" {
		t.Fatalf("unexpected selection: %+v", resolved.Selection)
	}

	var moved struct {
		Succeeded []string `json:"succeeded"`
		Failed    []string `json:"failed"`
		Selection []any    `json:"selection"`
	}
	resp = postJSON(t, client, env.server.URL, base+"/actions/move", map[string]any{"locationID": 7})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	decodeBody(t, resp, &moved)
	if len(moved.Succeeded) != 1 || moved.Succeeded[0] != "123456" {
		t.Fatalf("unexpected move result: %+v", moved)
	}
	if len(moved.Selection) != 0 {
		t.Fatalf("moved boxes must leave the selection, got %+v", moved.Selection)
	}

	if n := countActionLogs(t, env.db, actionlog.ActionMoveBoxes); n != 1 {
		t.Fatalf("expected 1 move_boxes log row, got %d", n)
	}
}

func TestVolunteerCannotAssignToShipment(t *testing.T) {
	env, client := setupIntegrationServer(t)
	loginAs(t, client, env.server.URL, "vol1", "Volunteer123!Bx")

	var opened struct {
		Token string `json:"token"`
	}
	resp := postJSON(t, client, env.server.URL, "/app/scan/sessions", map[string]any{})
	decodeBody(t, resp, &opened)

	resp = postJSON(t, client, env.server.URL, "/app/scan/sessions/"+opened.Token+"/actions/assign-to-shipment", map[string]any{"shipmentID": 5})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 for volunteer assign, got %d", resp.StatusCode)
	}
}

func TestReceiveFlowMarksBoxReceived(t *testing.T) {
	env, client := setupIntegrationServer(t)
	loginAs(t, client, env.server.URL, "coord1", "Coord123!Boxscan")

	var opened struct {
		Token    string `json:"token"`
		Shipment struct {
			ID int64 `json:"id"`
		} `json:"shipment"`
	}
	resp := postJSON(t, client, env.server.URL, "/app/receive/sessions", map[string]any{"shipmentID": 5})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	decodeBody(t, resp, &opened)
	if opened.Shipment.ID != 5 {
		t.Fatalf("unexpected shipment: %+v", opened.Shipment)
	}
	base := "/app/receive/sessions/" + opened.Token + "/details/31"

	// The auto-match covers the source size, so the box skips straight to
	// the location step.
	var state struct {
		Step string `json:"step"`
	}
	resp = get(t, client, env.server.URL, base)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	decodeBody(t, resp, &state)
	if state.Step != "ReceivingLocation" {
		t.Fatalf("expected ReceivingLocation, got %s", state.Step)
	}

	resp = postJSON(t, client, env.server.URL, base+"/location", map[string]any{"locationID": 12})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	decodeBody(t, resp, &state)
	if state.Step != "Done" {
		t.Fatalf("expected Done, got %s", state.Step)
	}

	if n := countActionLogs(t, env.db, actionlog.ActionReceiveBox); n != 1 {
		t.Fatalf("expected 1 receive_box log row, got %d", n)
	}
}

func TestUnauthenticatedRequestRedirectsToLogin(t *testing.T) {
	env, client := setupIntegrationServer(t)

	resp := get(t, client, env.server.URL, "/app/exports/action-log")
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", resp.StatusCode)
	}
	if loc := resp.Header.Get("Location"); loc != "/login" {
		t.Fatalf("expected redirect to /login, got %s", loc)
	}
}

func TestLegacyRouteRedirects(t *testing.T) {
	env, client := setupIntegrationServer(t)

	resp := get(t, client, env.server.URL, "/mobile.php?barcode=abc")
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusTemporaryRedirect {
		t.Fatalf("expected 307, got %d", resp.StatusCode)
	}
	if loc := resp.Header.Get("Location"); loc != "https://legacy.example.org/mobile.php?barcode=abc" {
		t.Fatalf("unexpected legacy redirect: %s", loc)
	}
}

func TestMissingCSRFTokenIsRejected(t *testing.T) {
	env, _ := setupIntegrationServer(t)

	// A bare client without the CSRF cookie round trip.
	resp, err := http.Post(env.server.URL+"/app/scan/sessions", "application/json", strings.NewReader("{}"))
	if err != nil {
		t.Fatalf("POST failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 without csrf token, got %d", resp.StatusCode)
	}
}
