package report

import "testing"

func TestPercentZeroGuard(t *testing.T) {
	if got := Percent(5, 0); got != "0%" {
		t.Errorf("zero total must render 0%%, got %q", got)
	}
	if got := Percent(0, 0); got != "0%" {
		t.Errorf("zero over zero must render 0%%, got %q", got)
	}
	if got := Percent(1, 3); got != "33%" {
		t.Errorf("expected 33%%, got %q", got)
	}
	if got := Percent(2, 3); got != "67%" {
		t.Errorf("expected 67%%, got %q", got)
	}
}

func TestCountPercent(t *testing.T) {
	if got := CountPercent(3, 4); got != "3 (75%)" {
		t.Errorf("expected \"3 (75%%)\", got %q", got)
	}
	if got := CountPercent(0, 0); got != "0 (0%)" {
		t.Errorf("expected \"0 (0%%)\", got %q", got)
	}
}

func TestCR(t *testing.T) {
	cfg := CRConfig{Initial: "raw", Success: "active"}
	p := NewPivot([]string{"raw", "active"})

	// Two conversations entered raw; one of them reached active. A third
	// reached active without a recorded raw entry.
	p.Add([]string{"w", "u", "c1"}, "raw")
	p.Add([]string{"w", "u", "c1"}, "active")
	p.Add([]string{"w", "u", "c2"}, "raw")
	p.Add([]string{"w", "u", "c3"}, "active")

	week := p.Row("w")
	// active=2, raw=2 → 100%; qualified leaves (both stages) = 1 → 50%.
	if got := CR(week, cfg); got != "100% (50%)" {
		t.Errorf("expected \"100%% (50%%)\", got %q", got)
	}
	if got := SuccessCell(week, cfg); got != "2 (1)" {
		t.Errorf("expected \"2 (1)\", got %q", got)
	}
}

func TestCRZeroInitial(t *testing.T) {
	cfg := CRConfig{Initial: "raw", Success: "active"}
	p := NewPivot([]string{"raw", "active"})

	p.Add([]string{"w", "u", "c1"}, "active")

	if got := CR(p.Row("w"), cfg); got != "0% (0%)" {
		t.Errorf("no initial entries must render \"0%% (0%%)\", got %q", got)
	}
}

func TestQualified(t *testing.T) {
	cfg := CRConfig{Initial: "raw", Success: "active"}
	p := NewPivot([]string{"raw", "active"})

	p.Add([]string{"w", "u", "c1"}, "raw")
	p.Add([]string{"w", "u", "c1"}, "active")
	p.Add([]string{"w", "u", "c2"}, "active")

	if got := Qualified(p.Row("w"), cfg); got != 1 {
		t.Errorf("expected 1 qualified leaf, got %d", got)
	}
}
