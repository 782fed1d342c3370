package money

import "testing"

func TestFormatCents(t *testing.T) {
	t.Parallel()

	cases := []struct {
		cents    int64
		expected string
	}{
		{cents: 0, expected: "0.00 €"},
		{cents: 5, expected: "0.05 €"},
		{cents: 1700, expected: "17.00 €"},
		{cents: 1234, expected: "12.34 €"},
		{cents: 123456, expected: "1234.56 €"},
		{cents: -500, expected: "-5.00 €"},
	}
	for _, tc := range cases {
		if got := FormatCents(tc.cents); got != tc.expected {
			t.Errorf("FormatCents(%d) = %q, expected %q", tc.cents, got, tc.expected)
		}
	}
}
