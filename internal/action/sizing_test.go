package action

import "testing"

func TestWPlanes(t *testing.T) {
	cases := []struct {
		imsize int
		want   int
	}{
		{256, 1},
		{512, 1},
		{513, 64},
		{799, 64},
		{800, 96},
		{1023, 96},
		{1024, 128},
		{1599, 128},
		{1600, 256},
		{2047, 256},
		{2048, 384},
		{3000, 384},
		{3001, 448},
		{4095, 448},
		{4096, 512},
		{5000, 512},
	}
	for _, tc := range cases {
		if got := WPlanes(tc.imsize); got != tc.want {
			t.Errorf("WPlanes(%d) = %d, want %d", tc.imsize, got, tc.want)
		}
	}
}
