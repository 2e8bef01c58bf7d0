package segment

import (
	"testing"
	"time"

	"github.com/matzehuels/sadm/pkg/adm"
)

func TestIntervalOverlaps(t *testing.T) {
	tests := []struct {
		a, b Interval
		want bool
	}{
		{Interval{0, 2}, Interval{1, 3}, true},
		{Interval{0, 1}, Interval{1, 2}, false},
		{Interval{1, 2}, Interval{0, 1}, false},
		{Interval{0, Forever}, Interval{100, 101}, true},
		{Interval{5, 5}, Interval{0, 10}, true},
	}
	for _, tt := range tests {
		if got := tt.a.Overlaps(tt.b); got != tt.want {
			t.Errorf("%v.Overlaps(%v) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestClassify(t *testing.T) {
	w := Window(2*time.Second, time.Second)
	tests := []struct {
		validity Interval
		want     Position
	}{
		{Interval{0, time.Second}, Before},
		{Interval{0, 2 * time.Second}, Overlapping},
		{Interval{0, Forever}, Overlapping},
		{Interval{3 * time.Second, Forever}, Overlapping},
		{Interval{4 * time.Second, Forever}, After},
	}
	for _, tt := range tests {
		if got := Classify(tt.validity, w); got != tt.want {
			t.Errorf("Classify(%v, %v) = %v, want %v", tt.validity, w, got, tt.want)
		}
	}
}

func TestSelectBlocksEdgeCases(t *testing.T) {
	single := []adm.BlockFormat{adm.NewBlockFormat("AB_00031001_00000001", 0)}
	open := Interval{0, Forever}

	if got := SelectBlocks(nil, open, Window(0, time.Second)); got != nil {
		t.Errorf("no blocks: got %v", got)
	}
	if got := SelectBlocks(single, open, Window(time.Hour, time.Second)); len(got) != 1 {
		t.Errorf("single block not held open: got %v", got)
	}
	ended := Interval{0, 2 * time.Second}
	if got := SelectBlocks(single, ended, Window(2*time.Second, time.Second)); got != nil {
		t.Errorf("window starting at item end selected %v", got)
	}
	late := Interval{5 * time.Second, Forever}
	if got := SelectBlocks(single, late, Window(4*time.Second, time.Second)); got != nil {
		t.Errorf("window ending at item start selected %v", got)
	}
	if got := SelectBlocks(single, late, Window(5*time.Second, time.Second)); len(got) != 1 {
		t.Errorf("window starting at item start selected %v", got)
	}
}
