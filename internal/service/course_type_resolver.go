package service

import (
	"strings"

	"github.com/noah-isme/enrollment-gate/internal/models"
)

const (
	scoreExact       = 1.0
	scoreContainment = 0.8
	scoreTokenWeight = 0.6
	minMatchScore    = 0.3
)

// catalogSynonyms maps catalog keys to names the backend may use for the same course.
var catalogSynonyms = map[string][]string{
	"lashista":      {"pestañas", "pestanas", "lashes", "extensiones", "lash"},
	"cosmetologia":  {"cosmetología", "cosmetologia", "cosmética", "estética facial"},
	"manicure":      {"uñas", "unas", "manicura", "nail", "nails"},
	"cejas":         {"cejas", "microblading", "brow", "brows"},
	"maquillaje":    {"makeup", "maquillaje profesional"},
	"peluqueria":    {"peluquería", "cabello", "estilismo", "barbería"},
	"masajes":       {"masaje", "spa", "masoterapia"},
	"depilacion":    {"depilación", "cera", "waxing"},
	"micropigmento": {"micropigmentación", "micropigmentacion", "dermopigmentación"},
}

// Synonyms returns the alternate names registered for a catalog key.
func Synonyms(catalogKey string) []string {
	return catalogSynonyms[strings.ToLower(strings.TrimSpace(catalogKey))]
}

// ResolveCourseType maps a catalog key onto a backend course type. An explicit
// catalog key binding wins; otherwise the best fuzzy match above 0.3 is returned.
func ResolveCourseType(catalogKey string, candidates []models.CourseTypeRecord) *models.CourseTypeRecord {
	key := strings.TrimSpace(catalogKey)
	if key == "" || len(candidates) == 0 {
		return nil
	}

	for i := range candidates {
		if candidates[i].CatalogKey != nil && strings.EqualFold(strings.TrimSpace(*candidates[i].CatalogKey), key) {
			return &candidates[i]
		}
	}

	terms := append([]string{key}, Synonyms(key)...)
	bestIndex := -1
	bestScore := 0.0
	for i := range candidates {
		for _, term := range terms {
			if score := Similarity(candidates[i].Name, term); score > bestScore {
				bestScore = score
				bestIndex = i
			}
		}
	}
	if bestIndex < 0 || bestScore <= minMatchScore {
		return nil
	}
	return &candidates[bestIndex]
}

// Similarity scores two names: 1.0 equal, 0.8 containment, otherwise token
// overlap weighted by 0.6. A token of a overlaps when it contains or is
// contained by some token of b, so "uñas" matches "uña".
func Similarity(a, b string) float64 {
	left := strings.ToLower(strings.TrimSpace(a))
	right := strings.ToLower(strings.TrimSpace(b))
	if left == "" || right == "" {
		return 0
	}
	if left == right {
		return scoreExact
	}
	if strings.Contains(left, right) || strings.Contains(right, left) {
		return scoreContainment
	}

	tokensA := strings.Fields(left)
	tokensB := strings.Fields(right)
	matches := 0
	for _, ta := range tokensA {
		for _, tb := range tokensB {
			if strings.Contains(ta, tb) || strings.Contains(tb, ta) {
				matches++
				break
			}
		}
	}
	if matches == 0 {
		return 0
	}
	longest := len(tokensA)
	if len(tokensB) > longest {
		longest = len(tokensB)
	}
	return float64(matches) / float64(longest) * scoreTokenWeight
}
