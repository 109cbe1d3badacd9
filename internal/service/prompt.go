package service

import (
	"fmt"
	"strings"

	"github.com/jjikmuck/jjikmuck/backend/internal/types"
)

const systemPromptBase = `당신은 식품 영양 분석 전문가입니다.
사용자의 건강 프로필(알레르기, 질병, 신체 정보)과 식품의 영양 정보를 분석하여
해당 식품이 사용자에게 적합한지 평가합니다.

분석 결과는 반드시 다음 JSON 형식으로만 응답하세요:
{
    "suitability": "safe" | "warning" | "danger",
    "score": 0-100 사이의 정수,
    "recommendations": ["권장사항1", "권장사항2", ...],
    "alternatives": [{"product_name": "대안제품명", "reason": "추천이유"}, ...],
    "nutritional_advice": "영양 관련 종합 조언"
}

평가 기준:
- "danger": 알레르기 유발 성분 포함, 질병에 치명적인 성분 (점수 0-39)
- "warning": 주의가 필요한 성분 포함, 과다 섭취 주의 (점수 40-69)
- "safe": 안전하게 섭취 가능 (점수 70-100)`

// BuildSystemPrompt returns the system instructions, including the personalized
// budget when one is given.
func BuildSystemPrompt(p *types.PersonalizationResult) string {
	var b strings.Builder
	b.WriteString(systemPromptBase)

	if p != nil {
		b.WriteString("\n\n## 개인화된 영양 권장 기준\n")
		fmt.Fprintf(&b, "- 1일 권장 칼로리: %dkcal\n", p.DailyCalories)
		if len(p.Adjustments) > 0 {
			b.WriteString("- 영양소 조절 권장사항:\n")
			for _, adj := range p.Adjustments {
				fmt.Fprintf(&b, "  • %s\n", adj)
			}
		}
		if len(p.Warnings) > 0 {
			b.WriteString("- 특별 주의사항:\n")
			for _, w := range p.Warnings {
				fmt.Fprintf(&b, "  • %s\n", w)
			}
		}
		b.WriteString("\n위 개인화된 기준을 반영하여 평가해주세요.")
	}

	b.WriteString("\n\n반드시 JSON 형식으로만 응답하고, 다른 텍스트는 포함하지 마세요.")
	return b.String()
}

// PromptInput gathers everything the user prompt is built from.
type PromptInput struct {
	Profile         types.UserProfile
	Product         types.ProductData
	Personalization *types.PersonalizationResult
	RuleResult      *types.RuleApplicationResult
	Findings        []types.MatchWarning
	Context         string
}

// BuildUserPrompt renders the profile, product and derived signals as markdown sections.
func BuildUserPrompt(in PromptInput) string {
	profile := in.Profile
	product := in.Product
	var b strings.Builder

	b.WriteString("## 사용자 건강 프로필\n")
	fmt.Fprintf(&b, "- 키: %s\n", measurement(profile.Height, "cm"))
	fmt.Fprintf(&b, "- 체중: %s\n", measurement(profile.Weight, "kg"))
	if in.Personalization != nil && in.Personalization.BMI != nil {
		bmi := in.Personalization.BMI
		fmt.Fprintf(&b, "- BMI: %.1f (%s)\n", bmi.Value, bmi.Label)
	} else {
		b.WriteString("- BMI: 정보 없음\n")
	}
	fmt.Fprintf(&b, "- 성별: %s\n", orDefault(profile.Gender, "미지정"))
	fmt.Fprintf(&b, "- 연령대: %s\n", orDefault(profile.AgeRange, "미지정"))
	fmt.Fprintf(&b, "- 알레르기: %s\n", joinOr(profile.Allergies, "없음"))
	fmt.Fprintf(&b, "- 질병/건강상태: %s\n", joinOr(profile.Diseases, "없음"))
	fmt.Fprintf(&b, "- 특수상태: %s\n", joinOr(profile.SpecialConditions, "없음"))
	fmt.Fprintf(&b, "- 식단 유형: %s\n", orDefault(profile.DietType, "none"))

	if in.Personalization != nil {
		b.WriteString("\n## 개인화된 1일 권장량\n")
		fmt.Fprintf(&b, "- 권장 칼로리: %dkcal\n", in.Personalization.DailyCalories)
	}

	b.WriteString("\n## 제품 정보\n")
	fmt.Fprintf(&b, "- 제품명: %s\n", orDefault(product.ProductName, "알 수 없음"))
	fmt.Fprintf(&b, "- 원재료: %s\n", joinOr(product.Ingredients, "정보 없음"))
	fmt.Fprintf(&b, "- 알레르기 유발 성분: %s\n", joinOr(product.Allergens, "정보 없음"))

	if info := product.NutritionalInfo; info != nil && !info.IsEmpty() {
		b.WriteString("\n## 영양 정보\n")
		for _, row := range []struct {
			label, nutrient, unit string
		}{
			{"열량", types.NutrientCalories, "kcal"},
			{"탄수화물", types.NutrientCarbohydrates, "g"},
			{"단백질", types.NutrientProtein, "g"},
			{"지방", types.NutrientFat, "g"},
			{"포화지방", types.NutrientSaturatedFat, "g"},
			{"트랜스지방", types.NutrientTransFat, "g"},
			{"나트륨", types.NutrientSodium, "mg"},
			{"당류", types.NutrientSugar, "g"},
		} {
			if v, ok := info.Value(row.nutrient); ok {
				fmt.Fprintf(&b, "- %s: %s%s\n", row.label, formatAmount(v), row.unit)
			}
		}
	}

	if len(in.Findings) > 0 {
		b.WriteString("\n## 성분 매칭 결과\n")
		for _, f := range in.Findings {
			fmt.Fprintf(&b, "- [%s] %s\n", f.Severity, f.Message)
		}
	}

	if r := in.RuleResult; r != nil {
		if len(r.Dangers) > 0 {
			b.WriteString("\n## ⚠️ 위험 감지 (규칙 기반)\n")
			for _, d := range r.Dangers {
				fmt.Fprintf(&b, "- %s: %s\n", d.Allergen, d.Message)
			}
		}
		if len(r.Warnings) > 0 {
			b.WriteString("\n## 주의 사항 (규칙 기반)\n")
			for _, w := range r.Warnings {
				fmt.Fprintf(&b, "- %s\n", w)
			}
		}
	}

	if strings.TrimSpace(in.Context) != "" {
		fmt.Fprintf(&b, "\n## 참고 지식 (RAG 검색 결과)\n%s\n", in.Context)
	}

	b.WriteString("\n위 정보를 바탕으로 이 제품이 사용자에게 적합한지 분석해주세요.")
	return b.String()
}

func measurement(v *float64, unit string) string {
	if v == nil {
		return "정보 없음"
	}
	return formatAmount(*v) + unit
}

func orDefault(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}

func joinOr(values []string, fallback string) string {
	if len(values) == 0 {
		return fallback
	}
	return strings.Join(values, ", ")
}
