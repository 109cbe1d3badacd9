package service

import (
	"fmt"
	"strings"

	"github.com/jjikmuck/jjikmuck/backend/config"
	"github.com/jjikmuck/jjikmuck/backend/internal/types"
)

var dietLabels = map[string]string{
	"vegan":       "비건",
	"vegetarian":  "채식",
	"pescatarian": "페스코",
	"halal":       "할랄",
	"kosher":      "코셔",
}

// Matcher finds allergen and diet conflicts in detected ingredients.
type Matcher struct {
	tables *config.Tables
}

// NewMatcher creates a matcher over the given alias and diet tables.
func NewMatcher(tables *config.Tables) *Matcher {
	return &Matcher{tables: tables}
}

// Match runs both the allergen and the diet matcher for one product and profile.
func (m *Matcher) Match(product types.ProductData, profile types.UserProfile) []types.MatchWarning {
	out := m.MatchAllergens(product.Ingredients, product.Allergens, profile.Allergies)
	return append(out, m.MatchDietViolations(product.Ingredients, profile.DietType)...)
}

// MatchAllergens tests every ingredient and declared allergen tag against the
// user's allergies. Both sides are expanded through the alias table and compared
// by case-insensitive substring containment in either direction.
//
// A literal match and any match on a declared allergen tag are danger; a match
// reached only through an alias is a warning. An item seen both as an
// ingredient and as a tag is reported once, at the higher severity.
func (m *Matcher) MatchAllergens(ingredients, allergenTags, allergies []string) []types.MatchWarning {
	allergies = types.NormalizeSet(allergies)
	if len(allergies) == 0 {
		return nil
	}

	var out []types.MatchWarning
	seen := make(map[string]int)

	check := func(item string, declared bool) {
		display := strings.TrimSpace(item)
		itemNorm := strings.ToLower(display)
		if itemNorm == "" {
			return
		}
		itemTerms := m.expand(itemNorm)

		for _, allergy := range allergies {
			canonical, allergyTerms := m.group(allergy)

			term := ""
			direct := containsEither(itemNorm, allergy)
			if direct {
				term = allergy
			} else if a, _, ok := firstOverlap(allergyTerms, []string{itemNorm}); ok {
				term = a
			} else if _, b, ok := firstOverlap(allergyTerms, itemTerms); ok {
				term = b
			} else {
				continue
			}

			w := types.MatchWarning{
				Kind:       types.FindingAllergy,
				Ingredient: display,
				Allergen:   canonical,
				Term:       term,
				Severity:   types.SeverityWarning,
			}
			switch {
			case declared:
				w.Severity = types.SeverityDanger
				w.Message = fmt.Sprintf("제품에 표시된 알레르기 유발 성분 '%s'이(가) '%s' 알레르기에 해당합니다", display, canonical)
			case direct:
				w.Severity = types.SeverityDanger
				w.Message = fmt.Sprintf("원재료 '%s'에서 알레르기 유발 성분 '%s'이(가) 감지되었습니다", display, canonical)
			default:
				w.Message = fmt.Sprintf("원재료 '%s'은(는) '%s' 유래 성분으로 알레르기 반응을 일으킬 수 있습니다", display, canonical)
			}

			key := canonical + "\x00" + itemNorm
			if i, dup := seen[key]; dup {
				if out[i].Severity != types.SeverityDanger && w.Severity == types.SeverityDanger {
					out[i] = w
				}
				continue
			}
			seen[key] = len(out)
			out = append(out, w)
		}
	}

	for _, ing := range ingredients {
		check(ing, false)
	}
	for _, tag := range allergenTags {
		check(tag, true)
	}
	return out
}

// MatchDietViolations flags ingredients containing a substring the diet forbids.
// An empty, "none" or unknown diet type yields no warnings.
func (m *Matcher) MatchDietViolations(ingredients []string, dietType string) []types.MatchWarning {
	diet, categories := m.tables.DietCategories(dietType)
	if len(categories) == 0 {
		return nil
	}
	label := dietLabels[diet]
	if label == "" {
		label = diet
	}

	var out []types.MatchWarning
	seen := make(map[string]struct{})
	for _, ing := range ingredients {
		display := strings.TrimSpace(ing)
		ingNorm := strings.ToLower(display)
		if ingNorm == "" {
			continue
		}
		for _, cat := range categories {
			for _, forbidden := range cat.Forbidden {
				f := strings.ToLower(strings.TrimSpace(forbidden))
				if f == "" || !strings.Contains(ingNorm, f) {
					continue
				}
				key := cat.Category + "\x00" + ingNorm
				if _, dup := seen[key]; !dup {
					seen[key] = struct{}{}
					out = append(out, types.MatchWarning{
						Kind:       types.FindingDiet,
						Ingredient: display,
						Allergen:   cat.Category,
						Term:       forbidden,
						Severity:   types.SeverityWarning,
						Message:    fmt.Sprintf("원재료 '%s'은(는) %s 식단에서 제한되는 %s 성분입니다", display, label, cat.Category),
					})
				}
				break
			}
		}
	}
	return out
}

// group returns the canonical name and the lowercased term set for an allergy.
// Allergies missing from the alias table stand for themselves.
func (m *Matcher) group(allergy string) (string, []string) {
	g, ok := m.tables.AllergenGroup(allergy)
	if !ok {
		return allergy, []string{allergy}
	}
	return g.Canonical, lowerTerms(g.Terms())
}

// expand returns the lowercased alias set of a term, or just the term.
func (m *Matcher) expand(term string) []string {
	g, ok := m.tables.AllergenGroup(term)
	if !ok {
		return []string{term}
	}
	terms := lowerTerms(g.Terms())
	return append(terms, term)
}

func lowerTerms(terms []string) []string {
	out := make([]string, 0, len(terms))
	for _, t := range terms {
		if n := strings.ToLower(strings.TrimSpace(t)); n != "" {
			out = append(out, n)
		}
	}
	return out
}

// containsEither is the bidirectional substring test shared by the matcher and the rule engine.
func containsEither(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	return strings.Contains(a, b) || strings.Contains(b, a)
}

func firstOverlap(left, right []string) (string, string, bool) {
	for _, a := range left {
		for _, b := range right {
			if containsEither(a, b) {
				return a, b, true
			}
		}
	}
	return "", "", false
}
