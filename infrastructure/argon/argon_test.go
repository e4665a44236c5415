package argon

import (
	"strings"
	"testing"
)

func TestCreateAndCompareHash(t *testing.T) {
	hash, err := CreateHash("CorrectHorse1!", DefaultParams)
	if err != nil {
		t.Fatalf("create hash: %v", err)
	}
	if !strings.HasPrefix(hash, "$argon2id$v=19$") {
		t.Fatalf("unexpected hash prefix: %s", hash)
	}

	ok, err := ComparePasswordAndHash("CorrectHorse1!", hash)
	if err != nil {
		t.Fatalf("compare: %v", err)
	}
	if !ok {
		t.Fatal("expected matching password to verify")
	}

	ok, err = ComparePasswordAndHash("WrongHorse1!", hash)
	if err != nil {
		t.Fatalf("compare wrong: %v", err)
	}
	if ok {
		t.Fatal("expected mismatching password to fail")
	}
}

func TestCreateHashRejectsEmptyPassword(t *testing.T) {
	if _, err := CreateHash("   ", nil); err == nil {
		t.Fatal("expected error for blank password")
	}
}

func TestCompareRejectsMalformedHash(t *testing.T) {
	if _, err := ComparePasswordAndHash("pw", "$argon2id$broken"); err == nil {
		t.Fatal("expected error for malformed hash")
	}
}
