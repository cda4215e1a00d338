package ident

import (
	"testing"
	"time"
)

func TestSequenceNext(t *testing.T) {
	testCases := []struct {
		name   string
		start  int64
		inputs []int64
		want   []int64
	}{
		{
			name:   "absent ids are synthesized monotonically",
			start:  100,
			inputs: []int64{0, 0, 0},
			want:   []int64{100, 101, 102},
		},
		{
			name:   "non-colliding caller ids are honored",
			start:  1,
			inputs: []int64{5, 9, 12},
			want:   []int64{5, 9, 12},
		},
		{
			name:   "colliding caller id is replaced with mark+1",
			start:  1,
			inputs: []int64{5, 5, 3},
			want:   []int64{5, 6, 7},
		},
		{
			name:   "mix of caller and synthesized ids",
			start:  10,
			inputs: []int64{0, 50, 0, 20},
			want:   []int64{10, 50, 51, 52},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			seq := NewSequence(tc.start)
			for i, in := range tc.inputs {
				got := seq.Next(in)
				if got != tc.want[i] {
					t.Errorf("Next(%d) call %d: expected %d, but got %d", in, i, tc.want[i], got)
				}
			}
		})
	}
}

func TestSequenceDeterministic(t *testing.T) {
	inputs := []int64{0, 7, 0, 7, 100, 0}
	a := NewSequence(3)
	b := NewSequence(3)
	for _, in := range inputs {
		if x, y := a.Next(in), b.Next(in); x != y {
			t.Fatalf("Expected identical outputs for identical input sequence, got %d and %d", x, y)
		}
	}
}

func TestMillisSeconds(t *testing.T) {
	ts := time.Date(2023, time.June, 1, 12, 0, 0, 500e6, time.UTC)
	if got := Millis(ts); got != 1685620800500 {
		t.Errorf("Expected 1685620800500, but got %d", got)
	}
	if got := Seconds(ts); got != 1685620800 {
		t.Errorf("Expected 1685620800, but got %d", got)
	}
}
