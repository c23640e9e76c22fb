package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/lexiqai/reader-gateway/internal/annotate"
)

var categoryColors = map[annotate.Significance]lipgloss.Color{
	annotate.SignificanceMythological:  lipgloss.Color("#C678DD"),
	annotate.SignificanceHistorical:    lipgloss.Color("#E5C07B"),
	annotate.SignificanceLiterary:      lipgloss.Color("#61AFEF"),
	annotate.SignificancePhilosophical: lipgloss.Color("#56B6C2"),
	annotate.SignificanceReligious:     lipgloss.Color("#D19A66"),
	annotate.SignificanceArtistic:      lipgloss.Color("#FF79C6"),
	annotate.SignificanceGeographical:  lipgloss.Color("#98C379"),
	annotate.SignificanceBiographical:  lipgloss.Color("#E06C75"),
	annotate.SignificanceGeneral:       lipgloss.Color("#ABB2BF"),
}

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#00FFFF"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))

	footnoteStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")).
			PaddingLeft(2)
)

func categoryStyle(sig annotate.Significance) lipgloss.Style {
	color, ok := categoryColors[sig]
	if !ok {
		color = categoryColors[annotate.SignificanceGeneral]
	}
	return lipgloss.NewStyle().Foreground(color).Underline(true)
}

// renderPassage returns the passage with entity segments highlighted by
// category, followed by numbered tooltips.
func renderPassage(p *Passage, segments []annotate.Segment) string {
	var b strings.Builder

	if p.Title != "" {
		b.WriteString(titleStyle.Render(p.Title))
		b.WriteString("\n\n")
	}

	var notes []string
	for _, seg := range segments {
		if !seg.IsEntity() {
			b.WriteString(seg.Content)
			continue
		}
		notes = append(notes, footnote(len(notes)+1, seg))
		b.WriteString(categoryStyle(seg.Category).Render(seg.Content))
		b.WriteString(dimStyle.Render(fmt.Sprintf("[%d]", len(notes))))
	}
	b.WriteString("\n")

	if len(notes) > 0 {
		b.WriteString("\n")
		for _, n := range notes {
			b.WriteString(footnoteStyle.Render(n))
			b.WriteString("\n")
		}
	}
	return b.String()
}

func footnote(n int, seg annotate.Segment) string {
	t := seg.Tooltip
	if t == nil {
		return fmt.Sprintf("%d. %s", n, seg.Content)
	}
	line := fmt.Sprintf("%d. %s (%s): %s", n, t.Title, t.Significance, t.Summary)
	if t.Source != "" {
		line += " [" + t.Source + "]"
	}
	if t.URL != "" {
		line += " " + t.URL
	}
	return line
}

// renderLegend lists every category in its colour.
func renderLegend() string {
	parts := make([]string, 0, len(annotate.Significances))
	for _, sig := range annotate.Significances {
		parts = append(parts, categoryStyle(sig).Render(string(sig)))
	}
	return dimStyle.Render("Legend: ") + strings.Join(parts, "  ")
}

func renderStats(stats annotate.Stats) string {
	line := fmt.Sprintf("%d entities highlighted, %d dropped (%d overlapping, %d empty)",
		stats.Emitted, stats.Dropped(), stats.Overlapping, stats.Empty)
	if stats.OutOfRange > 0 {
		line += fmt.Sprintf(", %d clamped to the text", stats.OutOfRange)
	}
	return dimStyle.Render(line)
}
