package service

import (
	"fmt"
	"sort"
	"strings"

	"github.com/jjikmuck/jjikmuck/backend/internal/types"
)

const (
	fallbackBaseScore   = 80
	fallbackDangerScore = 10

	safeThreshold    = 70
	warningThreshold = 40

	adviceAllergyDanger = "알레르기 반응을 일으킬 수 있는 성분이 포함되어 있습니다."
	adviceGeneric       = "균형 잡힌 식단을 유지하시기 바랍니다."
	noRiskMessage       = "분석 가능한 위험 요소가 발견되지 않았습니다."
)

// Disease labels the fallback heuristics recognize, compared whole.
var (
	diabetesLabels       = []string{"당뇨", "당뇨병", "제1형 당뇨", "제2형 당뇨", "diabetes", "type 1 diabetes", "type 2 diabetes"}
	hypertensionLabels   = []string{"고혈압", "hypertension"}
	hyperlipidemiaLabels = []string{"고지혈증", "이상지질혈증", "hyperlipidemia"}
)

// FallbackAnalysis computes a verdict from rule results and fixed heuristics
// alone. It is pure: identical inputs give identical output.
func FallbackAnalysis(profile types.UserProfile, product types.ProductData, ruleResult types.RuleApplicationResult) types.RAGAnalysis {
	score := fallbackBaseScore
	recommendations := []string{}

	if len(ruleResult.Dangers) > 0 {
		for _, d := range ruleResult.Dangers {
			recommendations = append(recommendations, fmt.Sprintf("⚠️ %s", d.Message))
		}
		return dangerAnalysis(recommendations)
	}

	if len(ruleResult.Warnings) > 0 {
		recommendations = append(recommendations, ruleResult.Warnings...)
		score += ruleResult.TotalScoreImpact
	}

	// second allergen check; it still fires when the rule table missed the allergen
	if matched := AllergenIntersection(product.Allergens, profile.Allergies); len(matched) > 0 {
		return dangerAnalysis([]string{
			fmt.Sprintf("⚠️ 알레르기 유발 성분 감지: %s", strings.Join(matched, ", ")),
			"이 제품은 섭취하지 않는 것이 좋습니다.",
		})
	}

	if info := product.NutritionalInfo; info != nil {
		if profile.HasDisease(diabetesLabels...) {
			if sugar, ok := info.Value(types.NutrientSugar); ok && sugar > 10 {
				recommendations = append(recommendations, "당류 함량이 높아 당뇨 환자는 주의가 필요합니다.")
				score -= 20
			}
		}
		if profile.HasDisease(hypertensionLabels...) {
			if sodium, ok := info.Value(types.NutrientSodium); ok && sodium > 500 {
				recommendations = append(recommendations, "나트륨 함량이 높아 고혈압 환자는 주의가 필요합니다.")
				score -= 15
			}
		}
		if profile.HasDisease(hyperlipidemiaLabels...) {
			if fat, ok := info.Value(types.NutrientSaturatedFat); ok && fat > 3 {
				recommendations = append(recommendations, "포화지방 함량이 높아 고지혈증 환자는 주의가 필요합니다.")
				score -= 15
			}
		}
	}

	if len(recommendations) == 0 {
		recommendations = append(recommendations, noRiskMessage)
	}

	score = ClampScore(score)
	return types.RAGAnalysis{
		Suitability:       SuitabilityForScore(score),
		Score:             score,
		Recommendations:   recommendations,
		Alternatives:      []types.Alternative{},
		NutritionalAdvice: adviceGeneric,
	}
}

// AllergenIntersection returns the sorted, lowercased exact overlap of the two sets.
func AllergenIntersection(productAllergens, userAllergies []string) []string {
	user := make(map[string]struct{}, len(userAllergies))
	for _, a := range types.NormalizeSet(userAllergies) {
		user[a] = struct{}{}
	}
	var out []string
	for _, a := range types.NormalizeSet(productAllergens) {
		if _, ok := user[a]; ok {
			out = append(out, a)
		}
	}
	sort.Strings(out)
	return out
}

// ClampScore bounds a score to [0, 100].
func ClampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// SuitabilityForScore maps a clamped score to its band.
func SuitabilityForScore(score int) types.Suitability {
	switch {
	case score >= safeThreshold:
		return types.SuitabilitySafe
	case score >= warningThreshold:
		return types.SuitabilityWarning
	default:
		return types.SuitabilityDanger
	}
}

func dangerAnalysis(recommendations []string) types.RAGAnalysis {
	return types.RAGAnalysis{
		Suitability:       types.SuitabilityDanger,
		Score:             fallbackDangerScore,
		Recommendations:   recommendations,
		Alternatives:      []types.Alternative{},
		NutritionalAdvice: adviceAllergyDanger,
	}
}
