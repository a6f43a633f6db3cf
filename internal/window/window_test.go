package window

import "testing"

func TestPlan(t *testing.T) {
	tests := []struct {
		name  string
		p     Planner
		limit int
		want  Window
	}{
		{"full history", Planner{Now: 4, Gap: 1, Datasteps: 5}, 0, Window{Start: 0, End: 4, Timesteps: 5, Range: 5}},
		{"limited", Planner{Now: 9, Gap: 1, Datasteps: 10}, 2, Window{Start: 8, End: 9, Timesteps: 2, Range: 2}},
		{"early playback", Planner{Now: 1, Gap: 1, Datasteps: 10}, 5, Window{Start: 0, End: 1, Timesteps: 5, Range: 5}},
		{"gap", Planner{Now: 9, Gap: 4, Datasteps: 10}, 12, Window{Start: 6, End: 9, Timesteps: 12, Range: 4}},
		{"gap two", Planner{Now: 5, Gap: 2, Datasteps: 6}, 0, Window{Start: 0, End: 5, Timesteps: 11, Range: 11}},
		{"zero gap", Planner{Now: 2, Gap: 0, Datasteps: 3}, 0, Window{Start: 0, End: 2, Timesteps: 3, Range: 3}},
		{"no data", Planner{Now: 0, Gap: 1, Datasteps: 0}, 0, Window{Start: 0, End: 0, Timesteps: 0, Range: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.p.Plan(tt.limit)
			if got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestPlanInvariants(t *testing.T) {
	for datasteps := 1; datasteps < 12; datasteps++ {
		for gap := 1; gap < 5; gap++ {
			for limit := 0; limit < 15; limit++ {
				for now := 0; now < datasteps; now++ {
					w := Planner{Now: now, Gap: gap, Datasteps: datasteps}.Plan(limit)
					if w.Start < 0 || w.Start > w.End || w.End != now {
						t.Fatalf("bad window %+v for now=%d gap=%d limit=%d", w, now, gap, limit)
					}
					if w.Len() > w.Range {
						t.Fatalf("window %+v longer than its range", w)
					}
					if limit > 0 && gap == 1 && w.Len() > limit {
						t.Fatalf("window %+v exceeds limit %d", w, limit)
					}
					if !w.Contains(now) || w.Contains(now+1) {
						t.Fatalf("window %+v containment wrong", w)
					}
				}
			}
		}
	}
}
