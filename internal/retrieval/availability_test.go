package retrieval

import "testing"

func TestCheckContentAvailability(t *testing.T) {
	ctx := "ROS 2 nodes communicate through topics and services."
	cases := []struct {
		name    string
		context string
		query   string
		want    bool
	}{
		{"empty context", "", "what are nodes", false},
		{"empty query", ctx, "  ", false},
		{"only short words", ctx, "why is it so", true},
		{"enough overlap", ctx, "How do nodes communicate with hardware drivers", true},
		{"too little overlap", ctx, "Explain reinforcement learning reward shaping policies", false},
		{"case insensitive", ctx, "TOPICS", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := CheckContentAvailability(tc.context, tc.query); got != tc.want {
				t.Fatalf("CheckContentAvailability: want=%v got=%v", tc.want, got)
			}
		})
	}
}
