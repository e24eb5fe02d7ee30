package tasks

import "testing"

func TestPriorityFromUrgency(t *testing.T) {
	cases := []struct {
		urgency string
		want    string
	}{
		{"urgent", PriorityUrgent},
		{"high", PriorityHigh},
		{"medium", PriorityMedium},
		{"low", PriorityMedium},
		{"", PriorityMedium},
		{"whatever", PriorityMedium},
	}

	for _, tc := range cases {
		if got := PriorityFromUrgency(tc.urgency); got != tc.want {
			t.Errorf("PriorityFromUrgency(%q) = %q, want %q", tc.urgency, got, tc.want)
		}
	}
}
