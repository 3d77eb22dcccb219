package common

import (
	"testing"
)

// ---------- NewTicketID ----------

func TestNewTicketID_UniqueCanonical(t *testing.T) {
	a, err := NewTicketID()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := NewTicketID()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a == "" || a == b {
		t.Fatalf("expected distinct non-empty ids, got %q and %q", a, b)
	}
	if len(a) != 36 {
		t.Fatalf("expected canonical uuid length, got %d", len(a))
	}
}

// ---------- WipeByteArray ----------

func TestWipeByteArray_ZerosBuffer(t *testing.T) {
	buf := []byte{1, 2, 3, 4, 5}
	WipeByteArray(buf)
	for i, v := range buf {
		if v != 0 {
			t.Fatalf("expected buf[%d]==0, got %d", i, v)
		}
	}
}

func TestWipeByteArray_NilSafe(t *testing.T) {
	WipeByteArray(nil)
}
