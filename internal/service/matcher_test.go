package service

import (
	"testing"

	"github.com/jjikmuck/jjikmuck/backend/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatchAllergens(t *testing.T) {
	m := NewMatcher(testTables(t))

	t.Run("alias expansion links milk to casein", func(t *testing.T) {
		out := m.MatchAllergens([]string{"카제인"}, nil, []string{"우유"})
		require.Len(t, out, 1)
		w := out[0]
		assert.Equal(t, types.FindingAllergy, w.Kind)
		assert.Equal(t, "카제인", w.Ingredient)
		assert.Equal(t, "우유", w.Allergen)
		assert.Equal(t, "카제인", w.Term)
		assert.Equal(t, types.SeverityWarning, w.Severity)
		assert.Contains(t, w.Message, "카제인")
		assert.Contains(t, w.Message, "우유")
	})

	t.Run("literal match is danger", func(t *testing.T) {
		out := m.MatchAllergens([]string{"볶음땅콩"}, nil, []string{"땅콩"})
		require.Len(t, out, 1)
		assert.Equal(t, types.SeverityDanger, out[0].Severity)
		assert.Equal(t, "땅콩", out[0].Term)
	})

	t.Run("english allergy matches korean ingredient", func(t *testing.T) {
		out := m.MatchAllergens([]string{"밀가루"}, nil, []string{"Wheat"})
		require.Len(t, out, 1)
		assert.Equal(t, "밀", out[0].Allergen)
	})

	t.Run("declared tag is danger", func(t *testing.T) {
		out := m.MatchAllergens(nil, []string{"Milk"}, []string{"우유"})
		require.Len(t, out, 1)
		assert.Equal(t, types.SeverityDanger, out[0].Severity)
		assert.Equal(t, "Milk", out[0].Ingredient)
	})

	t.Run("duplicates collapse", func(t *testing.T) {
		out := m.MatchAllergens([]string{"카제인", " 카제인 "}, nil, []string{"우유", "milk"})
		assert.Len(t, out, 1)
	})

	t.Run("declared tag upgrades alias-only ingredient match", func(t *testing.T) {
		out := m.MatchAllergens([]string{"유청분말"}, []string{"유청분말"}, []string{"우유"})
		require.Len(t, out, 1)
		assert.Equal(t, types.SeverityDanger, out[0].Severity)
		assert.Equal(t, "우유", out[0].Allergen)
		assert.Contains(t, out[0].Message, "제품에 표시된")
	})

	t.Run("no allergies", func(t *testing.T) {
		assert.Empty(t, m.MatchAllergens([]string{"카제인"}, nil, nil))
	})

	t.Run("unrelated ingredients", func(t *testing.T) {
		assert.Empty(t, m.MatchAllergens([]string{"정제수", "설탕"}, nil, []string{"땅콩"}))
	})
}

func TestMatchDietViolations(t *testing.T) {
	m := NewMatcher(testTables(t))

	t.Run("vegan flags milk only", func(t *testing.T) {
		out := m.MatchDietViolations([]string{"우유", "밀가루"}, "vegan")
		require.Len(t, out, 1)
		assert.Equal(t, types.FindingDiet, out[0].Kind)
		assert.Equal(t, "우유", out[0].Ingredient)
		assert.Equal(t, "유제품", out[0].Allergen)
		assert.Equal(t, types.SeverityWarning, out[0].Severity)
	})

	t.Run("korean diet alias", func(t *testing.T) {
		out := m.MatchDietViolations([]string{"돼지고기"}, "할랄")
		require.Len(t, out, 1)
		assert.Equal(t, "돼지고기", out[0].Allergen)
	})

	for _, diet := range []string{"none", "", "carnivore"} {
		t.Run("no restriction for "+diet, func(t *testing.T) {
			assert.Empty(t, m.MatchDietViolations([]string{"우유", "소고기", "새우"}, diet))
		})
	}

	t.Run("one warning per category and ingredient", func(t *testing.T) {
		out := m.MatchDietViolations([]string{"우유버터크림"}, "vegan")
		assert.Len(t, out, 1)
	})
}

func TestMatchCombinesAllergyAndDiet(t *testing.T) {
	m := NewMatcher(testTables(t))
	product := types.ProductData{Ingredients: []string{"우유", "설탕"}}
	profile := types.UserProfile{Allergies: []string{"우유"}, DietType: "vegan"}

	out := m.Match(product, profile)
	require.Len(t, out, 2)
	assert.Equal(t, types.FindingAllergy, out[0].Kind)
	assert.Equal(t, types.FindingDiet, out[1].Kind)
}
