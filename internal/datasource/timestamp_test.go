package datasource

import (
	"testing"
	"time"
)

func TestParseTimestamp(t *testing.T) {
	want := time.Date(2025, 4, 5, 6, 7, 8, 0, time.UTC)
	tests := []struct {
		name string
		in   any
		ok   bool
	}{
		{"time", want, true},
		{"rfc3339", "2025-04-05T06:07:08Z", true},
		{"sqlite text", "2025-04-05 06:07:08", true},
		{"bytes", []byte("2025-04-05T06:07:08Z"), true},
		{"unix", want.Unix(), true},
		{"unix text", "1743833228", true},
		{"nil", nil, false},
		{"empty", "  ", false},
		{"garbage", "yesterday", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := parseTimestamp(tt.in)
			if ok != tt.ok {
				t.Fatalf("ok = %v, want %v", ok, tt.ok)
			}
			if ok && !got.Equal(want) {
				t.Errorf("got %v, want %v", got, want)
			}
		})
	}
}
