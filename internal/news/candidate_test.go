package news

import "testing"

func TestParseUrgency(t *testing.T) {
	t.Parallel()

	cases := map[string]Urgency{
		"breaking":     UrgencyBreaking,
		" Developing.": UrgencyDeveloping,
		"ROUTINE":      UrgencyRoutine,
		"urgent!!":     UrgencyRoutine,
		"":             UrgencyRoutine,
	}
	for raw, want := range cases {
		if got := ParseUrgency(raw); got != want {
			t.Fatalf("unexpected urgency for %q: got %q want %q", raw, got, want)
		}
	}
}

func TestUrgencyRank(t *testing.T) {
	t.Parallel()

	if !(UrgencyBreaking.Rank() < UrgencyDeveloping.Rank() && UrgencyDeveloping.Rank() < UrgencyRoutine.Rank()) {
		t.Fatalf("unexpected urgency ranking")
	}
	if Urgency("").Rank() != UrgencyRoutine.Rank() {
		t.Fatalf("unknown urgency should rank as routine")
	}
}

func TestEntryExcerptAndValid(t *testing.T) {
	t.Parallel()

	entry := Entry{Title: " Pier reopens ", Link: "https://example.com/pier"}
	if !entry.Valid() {
		t.Fatalf("expected entry to be valid")
	}
	if entry.Excerpt() != "Pier reopens" {
		t.Fatalf("unexpected excerpt fallback: %q", entry.Excerpt())
	}
	if (Entry{Title: "x"}).Valid() {
		t.Fatalf("entry without link should be invalid")
	}
}
