package common

import "testing"

func TestCoalesce(t *testing.T) {
	if got := Coalesce(0, 1280); got != 1280 {
		t.Errorf("Coalesce(0, 1280) = %d", got)
	}
	if got := Coalesce(640, 1280); got != 640 {
		t.Errorf("Coalesce(640, 1280) = %d", got)
	}
	if got := Coalesce(0.0, 0.0); got != 0 {
		t.Errorf("Coalesce of zeros = %v", got)
	}
	if got := Coalesce("", "", "label"); got != "label" {
		t.Errorf("Coalesce strings = %q", got)
	}
}

func TestCeilDiv(t *testing.T) {
	tests := []struct{ n, d, want int }{
		{0, 1024, 0},
		{1, 1024, 1},
		{1024, 1024, 1},
		{1025, 1024, 2},
		{3072, 1536, 2},
	}
	for _, tt := range tests {
		if got := CeilDiv(tt.n, tt.d); got != tt.want {
			t.Errorf("CeilDiv(%d, %d) = %d, want %d", tt.n, tt.d, got, tt.want)
		}
	}
}
