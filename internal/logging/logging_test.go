package logging

import "testing"

func TestClamp(t *testing.T) {
	cases := []struct {
		in   int
		want Level
	}{
		{-7, LevelError},
		{-1, LevelError},
		{0, LevelError},
		{1, LevelWarning},
		{2, LevelVerbose},
		{3, LevelDebug},
		{4, LevelDebug},
		{99, LevelDebug},
	}
	for _, tc := range cases {
		if got := Clamp(tc.in); got != tc.want {
			t.Fatalf("Clamp(%d) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestLevelString(t *testing.T) {
	if got := LevelVerbose.String(); got != "verbose" {
		t.Fatalf("unexpected level string: %q", got)
	}
	if got := Level(42).String(); got != "level(42)" {
		t.Fatalf("unexpected out-of-range string: %q", got)
	}
}
