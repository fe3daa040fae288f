package emotion

import "testing"

func TestTrustMachineApplyFeedbackPositive(t *testing.T) {
	m := NewTrustMachine()
	if got := m.ApplyFeedback(70, "Positif"); got != 72 {
		t.Fatalf("expected 72, got %d", got)
	}
	if got := m.ApplyFeedback(70, " oui "); got != 72 {
		t.Fatalf("expected trimmed feedback to count, got %d", got)
	}
}

func TestTrustMachineApplyFeedbackNegative(t *testing.T) {
	m := NewTrustMachine()
	if got := m.ApplyFeedback(70, "NÉGATIF"); got != 65 {
		t.Fatalf("expected 65, got %d", got)
	}
	if got := m.ApplyFeedback(70, "lent"); got != 70 {
		t.Fatalf("expected unknown feedback to keep score, got %d", got)
	}
}

func TestTrustMachineStaysInRange(t *testing.T) {
	m := NewTrustMachine()
	score := 70
	feedback := []string{"non", "mauvais", "confus", "négatif"}
	for i := 0; i < 50; i++ {
		score = m.ApplyFeedback(score, feedback[i%len(feedback)])
		if score < 0 || score > 100 {
			t.Fatalf("trust left range: %d", score)
		}
	}
	if score != 0 {
		t.Fatalf("expected trust to bottom out at 0, got %d", score)
	}
	for i := 0; i < 80; i++ {
		score = m.ApplyFeedback(score, "excellent")
		if score < 0 || score > 100 {
			t.Fatalf("trust left range: %d", score)
		}
	}
	if score != 100 {
		t.Fatalf("expected trust to top out at 100, got %d", score)
	}
}

func TestTrustMachineApplyComprehension(t *testing.T) {
	m := NewTrustMachine()
	cases := []struct {
		name  string
		score int
		comp  float64
		want  int
	}{
		{"low comprehension lowers trust", 70, 0.2, 67},
		{"low comprehension spares low trust", 10, 0.1, 10},
		{"high comprehension raises trust", 70, 0.9, 71},
		{"high comprehension capped", 95, 1.0, 95},
		{"middle comprehension keeps trust", 70, 0.5, 70},
		{"low comprehension just above floor", 11, 0.0, 8},
	}
	for _, tc := range cases {
		if got := m.ApplyComprehension(tc.score, tc.comp); got != tc.want {
			t.Fatalf("%s: expected %d, got %d", tc.name, tc.want, got)
		}
	}
}

func TestClampRisk(t *testing.T) {
	if ClampRisk(-0.5) != 0 || ClampRisk(1.7) != 1 || ClampRisk(0.4) != 0.4 {
		t.Fatalf("unexpected clamp results")
	}
}
