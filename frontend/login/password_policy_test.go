package login

import "testing"

func TestValidatePasswordPolicy(t *testing.T) {
	cases := []struct {
		name string
		pwd  string
		ok   bool
	}{
		{name: "valid mixed", pwd: "Warehouse-2026!x", ok: true},
		{name: "too short", pwd: "Wh-2026!x", ok: false},
		{name: "missing digit", pwd: "Warehouse-Keys!x", ok: false},
		{name: "missing symbol", pwd: "Warehouse2026xyz", ok: false},
		{name: "missing upper", pwd: "warehouse-2026!x", ok: false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidatePasswordPolicy(tc.pwd)
			if tc.ok && err != nil {
				t.Fatalf("expected valid password, got error: %v", err)
			}
			if !tc.ok && err == nil {
				t.Fatalf("expected policy error")
			}
		})
	}
}
