package alerts

import "testing"

func TestFormatAmount(t *testing.T) {
	cases := []struct {
		minor int64
		want  string
	}{
		{0, "0.00"},
		{5, "0.05"},
		{100, "1.00"},
		{2550, "25.50"},
		{12345, "123.45"},
	}
	for _, tc := range cases {
		if got := formatAmount(tc.minor); got != tc.want {
			t.Errorf("formatAmount(%d) = %q, want %q", tc.minor, got, tc.want)
		}
	}
}
