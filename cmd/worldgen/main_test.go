package main

import (
	"math"
	"testing"
)

func TestSeedFlag(t *testing.T) {
	cases := []struct {
		in   int64
		want uint32
		set  bool
		err  bool
	}{
		{-1, 0, false, false},
		{0, 0, true, false},
		{42, 42, true, false},
		{math.MaxUint32, math.MaxUint32, true, false},
		{math.MaxUint32 + 1, 0, false, true},
		{1 << 40, 0, false, true},
		{-2, 0, false, true},
	}
	for _, tc := range cases {
		got, set, err := seedFlag(tc.in)
		if (err != nil) != tc.err || got != tc.want || set != tc.set {
			t.Fatalf("seedFlag(%d) = %d, %v, %v", tc.in, got, set, err)
		}
	}
}
