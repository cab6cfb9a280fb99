package timex

import (
	"encoding/json"
	"testing"
	"time"
)

func TestUnmarshal_String(t *testing.T) {
	var d Duration
	if err := json.Unmarshal([]byte(`"90s"`), &d); err != nil {
		t.Fatalf("unmarshal error: %v", err)
	}
	if d.Duration != 90*time.Second {
		t.Fatalf("got %v, want 90s", d.Duration)
	}
}

func TestUnmarshal_Nanoseconds(t *testing.T) {
	var d Duration
	if err := json.Unmarshal([]byte(`1000000000`), &d); err != nil {
		t.Fatalf("unmarshal error: %v", err)
	}
	if d.Duration != time.Second {
		t.Fatalf("got %v, want 1s", d.Duration)
	}
}

func TestUnmarshal_Invalid(t *testing.T) {
	var d Duration
	if err := json.Unmarshal([]byte(`true`), &d); err == nil {
		t.Fatalf("expected error for bool input")
	}
	if err := json.Unmarshal([]byte(`"not-a-duration"`), &d); err == nil {
		t.Fatalf("expected error for bad string")
	}
}

func TestMarshal_Roundtrip(t *testing.T) {
	d := Duration{Duration: 5 * time.Minute}
	b, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("marshal error: %v", err)
	}
	var got Duration
	if err := json.Unmarshal(b, &got); err != nil {
		t.Fatalf("unmarshal error: %v", err)
	}
	if got.Duration != d.Duration {
		t.Fatalf("roundtrip mismatch: %v != %v", got.Duration, d.Duration)
	}
}
