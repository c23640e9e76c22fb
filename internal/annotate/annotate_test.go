package annotate

import (
	"testing"
)

type want struct {
	kind    SegmentKind
	content string
}

func assertSegments(t *testing.T, got []Segment, expected []want) {
	t.Helper()
	if len(got) != len(expected) {
		t.Fatalf("Expected %d segments, got %d: %+v", len(expected), len(got), got)
	}
	for i, w := range expected {
		if got[i].Kind != w.kind || got[i].Content != w.content {
			t.Errorf("Segment %d: expected {%s %q}, got {%s %q}", i, w.kind, w.content, got[i].Kind, got[i].Content)
		}
	}
}

func TestAnnotate_BasicSplit(t *testing.T) {
	got := Annotate("ABC", []Entity{{Start: 1, End: 2}})

	assertSegments(t, got, []want{
		{KindText, "A"},
		{KindEntity, "B"},
		{KindText, "C"},
	})
}

func TestAnnotate_NoEntities(t *testing.T) {
	got := Annotate("The Odyssey", nil)

	assertSegments(t, got, []want{{KindText, "The Odyssey"}})
	if got[0].Entity != nil {
		t.Error("Expected text segment to carry no entity")
	}
}

func TestAnnotate_EmptyText(t *testing.T) {
	got := Annotate("", []Entity{{Start: 0, End: 3}})
	if len(got) != 0 {
		t.Errorf("Expected no segments for empty text, got %+v", got)
	}
	if got == nil {
		t.Error("Expected an empty, non-nil slice")
	}
}

func TestAnnotate_OverlapDropsLater(t *testing.T) {
	got, stats := AnnotateWithStats("ABCDE", []Entity{{Start: 0, End: 3}, {Start: 2, End: 5}})

	assertSegments(t, got, []want{
		{KindEntity, "ABC"},
		{KindText, "DE"},
	})
	if stats.Overlapping != 1 || stats.Emitted != 1 {
		t.Errorf("Expected 1 emitted and 1 overlapping, got %+v", stats)
	}
}

func TestAnnotate_TieKeepsLongerSpan(t *testing.T) {
	got := Annotate("Homer wrote", []Entity{
		{Start: 0, End: 3, Text: "Hom"},
		{Start: 0, End: 5, Text: "Homer"},
	})

	assertSegments(t, got, []want{
		{KindEntity, "Homer"},
		{KindText, " wrote"},
	})
	if got[0].Entity.Text != "Homer" {
		t.Errorf("Expected the longer entity to win, got %q", got[0].Entity.Text)
	}
}

func TestAnnotate_UnsortedInput(t *testing.T) {
	text := "Zeus ruled Olympus"
	got := Annotate(text, []Entity{
		{Start: 11, End: 18},
		{Start: 0, End: 4},
	})

	assertSegments(t, got, []want{
		{KindEntity, "Zeus"},
		{KindText, " ruled "},
		{KindEntity, "Olympus"},
	})
}

func TestAnnotate_AdjacentEntities(t *testing.T) {
	got := Annotate("ABCD", []Entity{{Start: 0, End: 2}, {Start: 2, End: 4}})

	assertSegments(t, got, []want{
		{KindEntity, "AB"},
		{KindEntity, "CD"},
	})
}

func TestAnnotate_RejectsEmptyAndInvertedSpans(t *testing.T) {
	got, stats := AnnotateWithStats("ABC", []Entity{
		{Start: 1, End: 1},
		{Start: 2, End: 1},
	})

	assertSegments(t, got, []want{{KindText, "ABC"}})
	if stats.Empty != 2 {
		t.Errorf("Expected 2 empty spans, got %+v", stats)
	}
	if stats.Dropped() != 2 {
		t.Errorf("Expected 2 dropped, got %d", stats.Dropped())
	}
}

func TestAnnotate_ClampsOutOfRange(t *testing.T) {
	got, stats := AnnotateWithStats("ABC", []Entity{
		{Start: -2, End: 1},
		{Start: 2, End: 10},
		{Start: 7, End: 9},
	})

	assertSegments(t, got, []want{
		{KindEntity, "A"},
		{KindText, "B"},
		{KindEntity, "C"},
	})
	if stats.OutOfRange != 3 {
		t.Errorf("Expected 3 out-of-range entities, got %+v", stats)
	}
	if stats.Empty != 1 {
		t.Errorf("Expected the fully outside span to be empty, got %+v", stats)
	}
}

func TestAnnotate_SnapsToRuneBoundaries(t *testing.T) {
	text := "Ā and B" // Ā is two bytes
	got := Annotate(text, []Entity{{Start: 1, End: 2}})

	if Concat(got) != text {
		t.Fatalf("Expected concatenation to reproduce text, got %q", Concat(got))
	}
	if got[0].Content != "Ā" {
		t.Errorf("Expected entity widened to the whole rune, got %q", got[0].Content)
	}
}

func TestAnnotate_ConcatReproducesText(t *testing.T) {
	text := "In the Mahabharata, Krishna counsels Arjuna at Kurukshetra."
	entities := []Entity{
		{Start: 7, End: 18},
		{Start: 20, End: 27},
		{Start: 37, End: 43},
		{Start: 47, End: 58},
	}

	got := Annotate(text, entities)
	if Concat(got) != text {
		t.Errorf("Expected %q, got %q", text, Concat(got))
	}
	for i, s := range got {
		if s.Content == "" {
			t.Errorf("Segment %d is empty", i)
		}
	}
}

func TestAnnotate_DoesNotMutateInput(t *testing.T) {
	entities := []Entity{{Start: 3, End: 4}, {Start: 0, End: 1}}
	Annotate("ABCD", entities)

	if entities[0].Start != 3 || entities[1].Start != 0 {
		t.Errorf("Expected input order preserved, got %+v", entities)
	}
}

func TestAnnotate_EntityMetadata(t *testing.T) {
	got := Annotate("Athena", []Entity{{
		Start:                0,
		End:                  6,
		Text:                 "Athena",
		Type:                 "PERSON",
		CulturalSignificance: "Mythological",
		URL:                  "https://en.wikipedia.org/wiki/Athena",
		Source:               "Wikipedia",
	}})

	seg := got[0]
	if !seg.IsEntity() {
		t.Fatal("Expected an entity segment")
	}
	if seg.Category != SignificanceMythological {
		t.Errorf("Expected category mythological, got %s", seg.Category)
	}
	if seg.Tooltip == nil {
		t.Fatal("Expected a tooltip")
	}
	if seg.Tooltip.Summary != NoSummary {
		t.Errorf("Expected default summary, got %q", seg.Tooltip.Summary)
	}
	if seg.Tooltip.Title != "Athena" || seg.Tooltip.Source != "Wikipedia" {
		t.Errorf("Unexpected tooltip: %+v", seg.Tooltip)
	}
}

func TestAnnotate_UnknownSignificanceIsGeneral(t *testing.T) {
	got := Annotate("Rome", []Entity{{Start: 0, End: 4, CulturalSignificance: "unknown"}})
	if got[0].Category != SignificanceGeneral {
		t.Errorf("Expected general, got %s", got[0].Category)
	}
}

func TestAnnotate_MissingSignificanceUsesType(t *testing.T) {
	got := Annotate("Rome", []Entity{{Start: 0, End: 4, Type: "GPE"}})
	if got[0].Category != SignificanceGeographical {
		t.Errorf("Expected geographical, got %s", got[0].Category)
	}
}

func TestParseSignificance(t *testing.T) {
	if ParseSignificance(" Religious ") != SignificanceReligious {
		t.Error("Expected case-insensitive parse")
	}
	if ParseSignificance("") != SignificanceGeneral {
		t.Error("Expected empty to become general")
	}
}

func TestClassifySignificance(t *testing.T) {
	tests := []struct {
		name       string
		entityType string
		categories []string
		want       Significance
	}{
		{"folklore category", "PERSON", []string{"Norse folklore"}, SignificanceMythological},
		{"medieval category", "ORG", []string{"Medieval guilds"}, SignificanceHistorical},
		{"poetry category", "", []string{"Sanskrit poetry"}, SignificanceLiterary},
		{"philosophy category", "PERSON", []string{"Greek philosophers", "Philosophy of mind"}, SignificancePhilosophical},
		{"sacred category", "LOC", []string{"Sacred rivers"}, SignificanceReligious},
		{"work of art", "WORK_OF_ART", nil, SignificanceArtistic},
		{"person", "person", nil, SignificanceBiographical},
		{"location", "LOC", nil, SignificanceGeographical},
		{"unknown type", "NORP", nil, SignificanceGeneral},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClassifySignificance(tt.entityType, tt.categories); got != tt.want {
				t.Errorf("Expected %s, got %s", tt.want, got)
			}
		})
	}
}
