package league

import "testing"

func TestSupported_FixedOrder(t *testing.T) {
	t.Parallel()

	want := []string{"9", "12", "11", "20", "13"}
	got := Supported()
	if len(got) != len(want) {
		t.Fatalf("unexpected league count: %d", len(got))
	}
	for i, code := range want {
		if got[i].Code != code {
			t.Fatalf("league %d code=%s want=%s", i, got[i].Code, code)
		}
	}

	got[0].Name = "mutated"
	if again, _ := ByCode("9"); again.Name != "Premier League" {
		t.Fatalf("Supported must return a copy")
	}
}

func TestByCodeAndHeading(t *testing.T) {
	t.Parallel()

	if l, ok := ByCode(" 20 "); !ok || l.Name != "Bundesliga" {
		t.Fatalf("unexpected lookup result: %+v ok=%v", l, ok)
	}
	if _, ok := ByCode("99"); ok {
		t.Fatalf("unknown code should not resolve")
	}
	if l, ok := ByHeading("2025-2026 Serie A Scores & Fixtures"); !ok || l.Code != "11" {
		t.Fatalf("expected Serie A from heading, got %+v ok=%v", l, ok)
	}
	if _, ok := ByHeading("Eredivisie"); ok {
		t.Fatalf("unsupported heading should not resolve")
	}
}
