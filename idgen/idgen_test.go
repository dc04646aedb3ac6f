package idgen

import (
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestUUIDv7_Format(t *testing.T) {
	id := UUIDv7()()
	u, err := uuid.Parse(id)
	if err != nil {
		t.Fatalf("UUIDv7: not a valid UUID: %q", id)
	}
	if u.Version() != 7 {
		t.Fatalf("UUIDv7: version = %d, want 7", u.Version())
	}
}

func TestUUIDv7_Uniqueness(t *testing.T) {
	gen := UUIDv7()
	seen := make(map[string]struct{}, 1000)
	for i := 0; i < 1000; i++ {
		id := gen()
		if _, ok := seen[id]; ok {
			t.Fatalf("UUIDv7: duplicate at iteration %d", i)
		}
		seen[id] = struct{}{}
	}
}

func TestPrefixed(t *testing.T) {
	gen := Prefixed("ana_", Default)
	id := gen()
	if !strings.HasPrefix(id, "ana_") {
		t.Fatalf("Prefixed: got %q, want ana_ prefix", id)
	}
	if _, err := uuid.Parse(strings.TrimPrefix(id, "ana_")); err != nil {
		t.Fatalf("Prefixed: suffix is not a UUID: %q", id)
	}
}

func TestDefault_IsUUIDv7(t *testing.T) {
	u, err := uuid.Parse(Default())
	if err != nil {
		t.Fatalf("Default: %v", err)
	}
	if u.Version() != 7 {
		t.Fatalf("Default: version = %d, want 7", u.Version())
	}
}
