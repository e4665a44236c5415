package rbac

import "testing"

func TestMatchPathWildcardSegments(t *testing.T) {
	cases := []struct {
		pattern string
		path    string
		ok      bool
	}{
		{pattern: "/tasker/api/scan/sessions/*/resolve", path: "/tasker/api/scan/sessions/ab12/resolve", ok: true},
		{pattern: "/tasker/api/shipments/*/details/*/match", path: "/tasker/api/shipments/5/details/12/match", ok: true},
		{pattern: "/tasker/labels/*", path: "/tasker/labels/qr.pdf", ok: true},
		{pattern: "/tasker/admin/users", path: "/tasker/admin/users", ok: true},
		{pattern: "/tasker/admin/users", path: "/tasker/admin/users/1", ok: false},
		{pattern: "/tasker/api/scan/sessions/*/resolve", path: "/tasker/api/scan/sessions/ab12/undo", ok: false},
	}

	for _, tc := range cases {
		if got := matchPath(tc.pattern, tc.path); got != tc.ok {
			t.Fatalf("pattern=%s path=%s expected=%v got=%v", tc.pattern, tc.path, tc.ok, got)
		}
	}
}
