package adm

import (
	"errors"
	"testing"
	"time"
)

func TestParseTimecode(t *testing.T) {
	tests := []struct {
		in   string
		want time.Duration
	}{
		{"00:00:00.00000", 0},
		{"00:00:01.5", 1500 * time.Millisecond},
		{"00:00:02.25000", 2250 * time.Millisecond},
		{"01:02:03.000000001", time.Hour + 2*time.Minute + 3*time.Second + 1},
		{"00:00:01.1S4", time.Second + 250*time.Millisecond},
		{"3S2", 1500 * time.Millisecond},
		{"48000S48000", time.Second},
		{"9200000000S1", 9200000000 * time.Second},
	}
	for _, tt := range tests {
		got, err := ParseTimecode(tt.in)
		if err != nil {
			t.Errorf("ParseTimecode(%q): %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseTimecode(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestParseTimecodeErrors(t *testing.T) {
	tests := []struct {
		in   string
		want error
	}{
		{"00:00:01:12", ErrUnsupportedTimecode},
		{"1.5", ErrInvalidTimecode},
		{"", ErrInvalidTimecode},
		{"00:00:01.", ErrInvalidTimecode},
		{"3S0", ErrInvalidTimecode},
		{"99999999999S1", ErrInvalidTimecode},
		{"9300000000S1", ErrInvalidTimecode},
	}
	for _, tt := range tests {
		if _, err := ParseTimecode(tt.in); !errors.Is(err, tt.want) {
			t.Errorf("ParseTimecode(%q) err = %v, want %v", tt.in, err, tt.want)
		}
	}
}

func TestFormatTimecode(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{0, "00:00:00.000000000"},
		{1500 * time.Millisecond, "00:00:01.500000000"},
		{time.Hour + time.Minute + time.Second + 1, "01:01:01.000000001"},
		{-time.Second, "00:00:00.000000000"},
	}
	for _, tt := range tests {
		got := FormatTimecode(tt.in)
		if got != tt.want {
			t.Errorf("FormatTimecode(%v) = %q, want %q", tt.in, got, tt.want)
		}
		if tt.in >= 0 {
			back, err := ParseTimecode(got)
			if err != nil || back != tt.in {
				t.Errorf("round trip %v -> %q -> %v (%v)", tt.in, got, back, err)
			}
		}
	}
}
