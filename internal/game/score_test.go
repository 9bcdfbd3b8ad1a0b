package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPoints(t *testing.T) {
	testCases := []struct {
		name    string
		elapsed int
		want    int
	}{
		{"instant answer", 0, 10},
		{"just under first tier", 4, 10},
		{"second tier", 5, 8},
		{"just under second tier", 9, 8},
		{"third tier", 10, 6},
		{"fourth tier", 15, 4},
		{"fifth tier", 20, 2},
		{"last scoring second", 29, 2},
		{"at deadline", 30, 0},
		{"after deadline", 31, 0},
		{"way after deadline", 3600, 0},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Points(tc.elapsed))
		})
	}
}

func TestPoints_NonIncreasing(t *testing.T) {
	prev := Points(0)
	for elapsed := 1; elapsed <= 60; elapsed++ {
		got := Points(elapsed)
		assert.LessOrEqual(t, got, prev, "points must never increase with elapsed time (t=%d)", elapsed)
		prev = got
	}
}
