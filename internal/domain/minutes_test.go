package domain

import (
	"encoding/json"
	"testing"
)

func TestParseMinutes(t *testing.T) {
	cases := []struct {
		in      any
		want    Minutes
		wantErr bool
	}{
		{in: 60, want: 60},
		{in: int64(45), want: 45},
		{in: float64(30), want: 30},
		{in: "60", want: 60},
		{in: "60 min", want: 60},
		{in: []byte("90"), want: 90},
		{in: "", want: 0},
		{in: nil, want: 0},
		{in: "abc", wantErr: true},
	}

	for _, c := range cases {
		got, err := ParseMinutes(c.in)
		if c.wantErr {
			if err == nil {
				t.Fatalf("ParseMinutes(%v): expected error", c.in)
			}
			continue
		}
		if err != nil {
			t.Fatalf("ParseMinutes(%v) error: %v", c.in, err)
		}
		if got != c.want {
			t.Fatalf("ParseMinutes(%v) = %d, want %d", c.in, got, c.want)
		}
	}
}

func TestMinutesUnmarshalJSON(t *testing.T) {
	var s struct {
		Duration Minutes `json:"duration"`
	}

	if err := json.Unmarshal([]byte(`{"duration": 60}`), &s); err != nil {
		t.Fatalf("unmarshal number: %v", err)
	}
	if s.Duration != 60 {
		t.Fatalf("duration = %d, want 60", s.Duration)
	}

	if err := json.Unmarshal([]byte(`{"duration": "45"}`), &s); err != nil {
		t.Fatalf("unmarshal string: %v", err)
	}
	if s.Duration != 45 {
		t.Fatalf("duration = %d, want 45", s.Duration)
	}
}
