package annotate

import (
	"sort"
	"strings"
	"unicode/utf8"
)

// Annotate splits text into segments around entities.
//
// Entities are ordered by Start, ties broken by longer span first. An entity
// starting inside an already emitted entity is dropped. Spans are clamped to
// the text and snapped outward to rune boundaries; spans that end up empty are
// dropped. Concatenating the returned contents always reproduces text.
func Annotate(text string, entities []Entity) []Segment {
	segments, _ := AnnotateWithStats(text, entities)
	return segments
}

// AnnotateWithStats is Annotate plus counts of what happened to each entity.
func AnnotateWithStats(text string, entities []Entity) ([]Segment, Stats) {
	var stats Stats
	if text == "" {
		stats.Empty = len(entities)
		return []Segment{}, stats
	}
	if len(entities) == 0 {
		return []Segment{textSegment(text)}, stats
	}

	sorted := make([]Entity, len(entities))
	copy(sorted, entities)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Start != sorted[j].Start {
			return sorted[i].Start < sorted[j].Start
		}
		return sorted[i].End > sorted[j].End
	})

	segments := make([]Segment, 0, 2*len(sorted)+1)
	cursor := 0

	for i := range sorted {
		ent := sorted[i]

		start, end, clamped := clampSpan(text, ent.Start, ent.End)
		if clamped {
			stats.OutOfRange++
		}
		if start >= end {
			stats.Empty++
			continue
		}
		if start < cursor {
			stats.Overlapping++
			continue
		}

		if cursor < start {
			segments = append(segments, textSegment(text[cursor:start]))
		}
		segments = append(segments, entitySegment(text[start:end], ent))
		stats.Emitted++
		cursor = end
	}

	if cursor < len(text) {
		segments = append(segments, textSegment(text[cursor:]))
	}

	return segments, stats
}

// Concat joins segment contents back into the passage.
func Concat(segments []Segment) string {
	var b strings.Builder
	for _, s := range segments {
		b.WriteString(s.Content)
	}
	return b.String()
}

// clampSpan bounds [start,end) to the text and widens it to rune boundaries.
func clampSpan(text string, start, end int) (int, int, bool) {
	clamped := false
	if start < 0 {
		start = 0
		clamped = true
	}
	if end > len(text) {
		end = len(text)
		clamped = true
	}
	if start >= end {
		return start, end, clamped
	}
	for start > 0 && !utf8.RuneStart(text[start]) {
		start--
	}
	for end < len(text) && !utf8.RuneStart(text[end]) {
		end++
	}
	return start, end, clamped
}

func textSegment(content string) Segment {
	return Segment{Kind: KindText, Content: content}
}

func entitySegment(content string, ent Entity) Segment {
	sig := ent.CulturalSignificance
	if sig == "" {
		sig = ClassifySignificance(ent.Type, nil)
	} else {
		sig = ParseSignificance(string(sig))
	}
	ent.CulturalSignificance = sig

	summary := ent.Summary
	if strings.TrimSpace(summary) == "" {
		summary = NoSummary
	}
	title := ent.Text
	if title == "" {
		title = content
	}

	return Segment{
		Kind:     KindEntity,
		Content:  content,
		Entity:   &ent,
		Category: sig,
		Tooltip: &Tooltip{
			Title:        title,
			Summary:      summary,
			Significance: sig,
			URL:          ent.URL,
			Source:       ent.Source,
		},
	}
}
