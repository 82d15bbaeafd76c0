package id

import (
	"strings"
	"testing"

	"github.com/google/uuid"
)

func decodeID(t *testing.T, value string) uuid.UUID {
	t.Helper()
	raw, err := encoding.DecodeString(strings.ToUpper(value))
	if err != nil {
		t.Fatalf("decode %q: %v", value, err)
	}
	parsed, err := uuid.FromBytes(raw)
	if err != nil {
		t.Fatalf("uuid from %q: %v", value, err)
	}
	return parsed
}

func TestNewIDIsLowercaseBase32UUID(t *testing.T) {
	value, err := NewID()
	if err != nil {
		t.Fatalf("new id: %v", err)
	}
	if len(value) != 26 || strings.ToLower(value) != value {
		t.Fatalf("id = %q, want 26 lowercase characters", value)
	}
	if strings.ContainsAny(value, "=018") {
		t.Fatalf("id = %q contains characters outside the base32 alphabet", value)
	}

	parsed := decodeID(t, value)
	if parsed.Version() != 4 || parsed.Variant() != uuid.RFC4122 {
		t.Fatalf("uuid %s version %d variant %s, want random RFC 4122", parsed, parsed.Version(), parsed.Variant())
	}
}

func TestNewIDDoesNotRepeat(t *testing.T) {
	const n = 1000
	seen := make(map[string]struct{}, n)
	for i := 0; i < n; i++ {
		value, err := NewID()
		if err != nil {
			t.Fatalf("new id %d: %v", i, err)
		}
		if _, dup := seen[value]; dup {
			t.Fatalf("id %q repeated after %d draws", value, i)
		}
		seen[value] = struct{}{}
	}
}
