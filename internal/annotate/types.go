// Package annotate overlays a passage with detected entity spans and renders
// the result as a gap-free, order-preserving list of segments.
//
// Entities come from the analysis service; this package never detects them.
// Malformed spans (overlapping, empty, out of range) are skipped or clamped,
// never reported as errors.
package annotate

import "strings"

// Significance is the cultural category attached to an entity.
type Significance string

const (
	SignificanceMythological  Significance = "mythological"
	SignificanceHistorical    Significance = "historical"
	SignificanceLiterary      Significance = "literary"
	SignificancePhilosophical Significance = "philosophical"
	SignificanceReligious     Significance = "religious"
	SignificanceArtistic      Significance = "artistic"
	SignificanceGeographical  Significance = "geographical"
	SignificanceBiographical  Significance = "biographical"
	SignificanceGeneral       Significance = "general"
)

// Significances lists every category in presentation order.
var Significances = []Significance{
	SignificanceMythological,
	SignificanceHistorical,
	SignificanceLiterary,
	SignificancePhilosophical,
	SignificanceReligious,
	SignificanceArtistic,
	SignificanceGeographical,
	SignificanceBiographical,
	SignificanceGeneral,
}

// IsValid reports whether s is a recognised category.
func (s Significance) IsValid() bool {
	switch s {
	case SignificanceMythological, SignificanceHistorical, SignificanceLiterary,
		SignificancePhilosophical, SignificanceReligious, SignificanceArtistic,
		SignificanceGeographical, SignificanceBiographical, SignificanceGeneral:
		return true
	}
	return false
}

// ParseSignificance maps s to a category. Unknown values, including the
// analysis service's "unknown", become SignificanceGeneral.
func ParseSignificance(s string) Significance {
	sig := Significance(strings.ToLower(strings.TrimSpace(s)))
	if sig.IsValid() {
		return sig
	}
	return SignificanceGeneral
}

// Entity is a detected span of the passage. End is exclusive.
type Entity struct {
	Start                int          `json:"start" yaml:"start"`
	End                  int          `json:"end" yaml:"end"`
	Text                 string       `json:"text" yaml:"text"`
	Type                 string       `json:"type" yaml:"type"`
	CulturalSignificance Significance `json:"cultural_significance,omitempty" yaml:"cultural_significance,omitempty"`
	Summary              string       `json:"summary,omitempty" yaml:"summary,omitempty"`
	Source               string       `json:"source,omitempty" yaml:"source,omitempty"`
	URL                  string       `json:"url,omitempty" yaml:"url,omitempty"`
}

// SegmentKind discriminates Segment.
type SegmentKind string

const (
	KindText   SegmentKind = "text"
	KindEntity SegmentKind = "entity"
)

// Segment is a contiguous run of the passage. Entity, Category and Tooltip
// are set only for KindEntity segments.
type Segment struct {
	Kind     SegmentKind  `json:"kind"`
	Content  string       `json:"content"`
	Entity   *Entity      `json:"entity,omitempty"`
	Category Significance `json:"category,omitempty"`
	Tooltip  *Tooltip     `json:"tooltip,omitempty"`
}

// IsEntity reports whether the segment is an entity highlight.
func (s Segment) IsEntity() bool {
	return s.Kind == KindEntity
}

// Tooltip is the hover card shown for an entity segment.
type Tooltip struct {
	Title        string       `json:"title"`
	Summary      string       `json:"summary"`
	Significance Significance `json:"significance"`
	URL          string       `json:"url,omitempty"`
	Source       string       `json:"source,omitempty"`
}

// NoSummary is shown when the analysis service had nothing to say.
const NoSummary = "No information available"

// Stats counts how Annotate treated its input entities.
type Stats struct {
	Emitted     int `json:"emitted"`
	Overlapping int `json:"overlapping"`
	OutOfRange  int `json:"out_of_range"`
	Empty       int `json:"empty"`
}

// Dropped returns the number of entities that produced no segment.
func (s Stats) Dropped() int {
	return s.Overlapping + s.Empty
}
