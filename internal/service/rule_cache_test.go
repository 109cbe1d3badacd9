package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/jjikmuck/jjikmuck/backend/internal/logger"
	"github.com/jjikmuck/jjikmuck/backend/internal/mocks"
	"github.com/jjikmuck/jjikmuck/backend/internal/models"
	"github.com/jjikmuck/jjikmuck/backend/internal/testhelpers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestRuleCacheKey(t *testing.T) {
	assert.Equal(t, RuleCacheKey([]string{"우유", "Peanut"}, []string{"당뇨"}), RuleCacheKey([]string{"peanut"}, []string{"당뇨", "우유"}))
	assert.Equal(t, "rules:match:peanut,당뇨", RuleCacheKey([]string{"Peanut"}, []string{"당뇨"}))
}

func TestCachedRuleLookup(t *testing.T) {
	client := testhelpers.SetupRedis(t)
	ctx := context.Background()

	rules := []models.AnalysisRule{{RuleType: "allergy", ConditionKey: "우유", Severity: "danger", ScoreImpact: -50}}
	next := new(mocks.MockRuleService)
	next.On("GetMatchingRules", mock.Anything, []string{"우유"}, []string(nil)).Return(rules, nil).Once()

	cache := NewCachedRuleLookup(next, client, 0, logger.Nop())

	got, err := cache.GetMatchingRules(ctx, []string{"우유"}, nil)
	require.NoError(t, err)
	assert.Equal(t, rules, got)

	// served from redis; the mock only allows one call
	got, err = cache.GetMatchingRules(ctx, []string{"우유"}, nil)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "우유", got[0].ConditionKey)

	raw, err := client.Get(ctx, RuleCacheKey([]string{"우유"}, nil)).Bytes()
	require.NoError(t, err)
	var cached []models.AnalysisRule
	require.NoError(t, json.Unmarshal(raw, &cached))
	assert.Len(t, cached, 1)

	added := &models.AnalysisRule{RuleType: "disease", ConditionKey: "당뇨"}
	next.On("AddRule", mock.Anything, added).Return(added, nil).Once()
	_, err = cache.AddRule(ctx, added)
	require.NoError(t, err)

	n, err := client.Exists(ctx, RuleCacheKey([]string{"우유"}, nil)).Result()
	require.NoError(t, err)
	assert.Zero(t, n)

	next.AssertExpectations(t)
}

func TestCachedRuleLookupPropagatesErrors(t *testing.T) {
	client := testhelpers.SetupRedis(t)
	ctx := context.Background()

	next := new(mocks.MockRuleService)
	next.On("GetMatchingRules", mock.Anything, []string{"땅콩"}, []string(nil)).Return(nil, errors.New("db down"))
	next.On("DeleteRule", mock.Anything, "missing").Return(ErrRuleNotFound)

	cache := NewCachedRuleLookup(next, client, 0, nil)

	_, err := cache.GetMatchingRules(ctx, []string{"땅콩"}, nil)
	assert.Error(t, err)
	assert.ErrorIs(t, cache.DeleteRule(ctx, "missing"), ErrRuleNotFound)

	rules, err := cache.GetMatchingRules(ctx, nil, nil)
	require.NoError(t, err)
	assert.Empty(t, rules)
}
