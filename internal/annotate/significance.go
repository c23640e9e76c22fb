package annotate

import "strings"

var categoryKeywords = []struct {
	sig   Significance
	words []string
}{
	{SignificanceMythological, []string{"mythology", "mythological", "folklore", "legend"}},
	{SignificanceHistorical, []string{"ancient", "classical", "medieval", "historical"}},
	{SignificanceLiterary, []string{"literature", "literary", "novel", "poetry"}},
	{SignificancePhilosophical, []string{"philosophy", "philosophical", "philosopher"}},
	{SignificanceReligious, []string{"religion", "religious", "spiritual", "sacred"}},
}

// ClassifySignificance derives a category from reference categories (for
// example encyclopedia categories or descriptions) and, failing that, from
// the entity type label.
func ClassifySignificance(entityType string, categories []string) Significance {
	joined := strings.ToLower(strings.Join(categories, " "))
	if joined != "" {
		for _, kw := range categoryKeywords {
			for _, w := range kw.words {
				if strings.Contains(joined, w) {
					return kw.sig
				}
			}
		}
	}

	switch strings.ToUpper(strings.TrimSpace(entityType)) {
	case "WORK_OF_ART":
		return SignificanceArtistic
	case "PERSON", "ORG":
		return SignificanceBiographical
	case "GPE", "LOC":
		return SignificanceGeographical
	case "EVENT":
		return SignificanceHistorical
	}
	return SignificanceGeneral
}
