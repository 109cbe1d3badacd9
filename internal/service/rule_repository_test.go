package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/jjikmuck/jjikmuck/backend/internal/models"
	"github.com/jjikmuck/jjikmuck/backend/internal/testhelpers"
	"github.com/jjikmuck/jjikmuck/backend/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func addRules(t *testing.T, repo *RuleRepository, rules ...*models.AnalysisRule) {
	t.Helper()
	for _, r := range rules {
		_, err := repo.AddRule(context.Background(), r)
		require.NoError(t, err)
	}
}

func TestRuleRepositoryGetMatchingRules(t *testing.T) {
	repo := NewRuleRepository(testhelpers.SetupSQLiteDB(t))
	addRules(t, repo,
		&models.AnalysisRule{RuleType: "allergy", ConditionKey: "Peanut", Severity: "danger", WarningMessage: "땅콩 성분 포함", ScoreImpact: -50},
		&models.AnalysisRule{RuleType: "disease", ConditionKey: "고혈압", WarningMessage: "나트륨 주의", ScoreImpact: -10,
			NutrientLimits: models.NutrientLimits{types.NutrientSodium: {Max: f(600)}}},
		&models.AnalysisRule{RuleType: "disease", ConditionKey: "당뇨", WarningMessage: "당류 주의", ScoreImpact: -10},
	)
	ctx := context.Background()

	rules, err := repo.GetMatchingRules(ctx, []string{" PEANUT "}, []string{"고혈압"})
	require.NoError(t, err)
	require.Len(t, rules, 2)
	assert.Equal(t, "allergy", rules[0].RuleType)
	assert.Equal(t, "peanut", rules[0].ConditionKey)
	assert.Equal(t, "고혈압", rules[1].ConditionKey)
	require.Contains(t, rules[1].NutrientLimits, types.NutrientSodium)
	assert.Equal(t, 600.0, *rules[1].NutrientLimits[types.NutrientSodium].Max)

	rules, err = repo.GetMatchingRules(ctx, nil, []string{"  "})
	require.NoError(t, err)
	assert.Empty(t, rules)

	rules, err = repo.GetMatchingRules(ctx, []string{"peanut butter"}, nil)
	require.NoError(t, err)
	assert.Empty(t, rules)
}

func TestRuleRepositoryAddRuleValidation(t *testing.T) {
	repo := NewRuleRepository(testhelpers.SetupSQLiteDB(t))
	ctx := context.Background()

	_, err := repo.AddRule(ctx, &models.AnalysisRule{RuleType: "mood", ConditionKey: "x"})
	assert.ErrorIs(t, err, ErrInvalidRule)

	_, err = repo.AddRule(ctx, &models.AnalysisRule{RuleType: "allergy", ConditionKey: " "})
	assert.ErrorIs(t, err, ErrInvalidRule)

	rule, err := repo.AddRule(ctx, &models.AnalysisRule{RuleType: " Nutrition ", ConditionKey: "Sodium"})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, rule.ID)
	assert.Equal(t, models.RuleTypeNutrition, rule.RuleType)
	assert.Equal(t, "sodium", rule.ConditionKey)
	assert.Equal(t, "warning", rule.Severity)
	assert.NotNil(t, rule.NutrientLimits)
}

func TestRuleRepositoryListAndDelete(t *testing.T) {
	repo := NewRuleRepository(testhelpers.SetupSQLiteDB(t))
	a := &models.AnalysisRule{RuleType: "allergy", ConditionKey: "우유", Severity: "danger"}
	d := &models.AnalysisRule{RuleType: "disease", ConditionKey: "당뇨"}
	addRules(t, repo, a, d)
	ctx := context.Background()

	all, err := repo.ListRules(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	allergy, err := repo.ListRules(ctx, "ALLERGY")
	require.NoError(t, err)
	require.Len(t, allergy, 1)
	assert.Equal(t, "우유", allergy[0].ConditionKey)

	require.NoError(t, repo.DeleteRule(ctx, a.ID.String()))
	assert.ErrorIs(t, repo.DeleteRule(ctx, a.ID.String()), ErrRuleNotFound)
	assert.ErrorIs(t, repo.DeleteRule(ctx, "not-a-uuid"), ErrRuleNotFound)

	all, err = repo.ListRules(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestRuleFromRequest(t *testing.T) {
	rule := RuleFromRequest(types.CreateRuleRequest{
		RuleType:       "disease",
		ConditionKey:   "고혈압",
		NutrientLimits: map[string]types.LimitMax{" Sodium ": {Max: f(500)}},
		WarningMessage: "나트륨 주의",
		Severity:       " Warning ",
	})
	assert.Equal(t, models.DefaultScoreImpact, rule.ScoreImpact)
	assert.Equal(t, "warning", rule.Severity)
	require.Contains(t, rule.NutrientLimits, "sodium")
	assert.Equal(t, 500.0, *rule.NutrientLimits["sodium"].Max)

	rule = RuleFromRequest(types.CreateRuleRequest{
		RuleType:       "disease",
		ConditionKey:   "고지혈증",
		NutrientLimits: map[string]types.LimitMax{"saturatedFat": {Max: f(10)}, "transFat": {Max: f(1)}},
	})
	assert.Contains(t, rule.NutrientLimits, types.NutrientSaturatedFat)
	assert.Contains(t, rule.NutrientLimits, types.NutrientTransFat)

	impact := 0
	rule = RuleFromRequest(types.CreateRuleRequest{RuleType: "allergy", ConditionKey: "밀", ScoreImpact: &impact})
	assert.Equal(t, 0, rule.ScoreImpact)
	assert.Empty(t, rule.NutrientLimits)
}

func TestConditionKeys(t *testing.T) {
	assert.Equal(t, []string{"peanut", "당뇨", "우유"}, conditionKeys([]string{"우유", "Peanut", "우유"}, []string{"당뇨 "}))
	assert.Empty(t, conditionKeys(nil, nil))
}
