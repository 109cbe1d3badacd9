package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jjikmuck/jjikmuck/backend/internal/logger"
	"github.com/jjikmuck/jjikmuck/backend/internal/models"
	"github.com/redis/go-redis/v9"
)

const (
	ruleCachePrefix     = "rules:match:"
	defaultRuleCacheTTL = 10 * time.Minute
)

// CachedRuleLookup is a Redis read-through cache in front of a rule service.
// Writes go to the underlying service and drop every cached lookup.
// Redis failures are logged and the underlying service answers instead.
type CachedRuleLookup struct {
	next  IRuleService
	redis *redis.Client
	ttl   time.Duration
	log   *logger.Logger
}

// NewCachedRuleLookup wraps next. A non-positive ttl uses the default.
func NewCachedRuleLookup(next IRuleService, client *redis.Client, ttl time.Duration, log *logger.Logger) *CachedRuleLookup {
	if ttl <= 0 {
		ttl = defaultRuleCacheTTL
	}
	if log == nil {
		log = logger.Nop()
	}
	return &CachedRuleLookup{next: next, redis: client, ttl: ttl, log: log}
}

// RuleCacheKey returns the cache key for a lookup. It depends only on the
// normalized set of conditions, not on their order or case.
func RuleCacheKey(allergies, diseases []string) string {
	return ruleCachePrefix + strings.Join(conditionKeys(allergies, diseases), ",")
}

// GetMatchingRules serves from the cache when possible.
func (c *CachedRuleLookup) GetMatchingRules(ctx context.Context, allergies, diseases []string) ([]models.AnalysisRule, error) {
	if len(conditionKeys(allergies, diseases)) == 0 {
		return []models.AnalysisRule{}, nil
	}
	key := RuleCacheKey(allergies, diseases)

	data, err := c.redis.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var rules []models.AnalysisRule
		if jsonErr := json.Unmarshal(data, &rules); jsonErr == nil {
			return rules, nil
		}
		c.log.Warn("discarding undecodable rule cache entry", "key", key)
	case err != redis.Nil:
		c.log.Warn("rule cache read failed", "key", key, "error", err)
	}

	rules, err := c.next.GetMatchingRules(ctx, allergies, diseases)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(rules); err == nil {
		if err := c.redis.Set(ctx, key, data, c.ttl).Err(); err != nil {
			c.log.Warn("rule cache write failed", "key", key, "error", err)
		}
	}
	return rules, nil
}

// AddRule stores the rule and invalidates the cache.
func (c *CachedRuleLookup) AddRule(ctx context.Context, rule *models.AnalysisRule) (*models.AnalysisRule, error) {
	created, err := c.next.AddRule(ctx, rule)
	if err != nil {
		return nil, err
	}
	c.invalidate(ctx)
	return created, nil
}

// ListRules is not cached.
func (c *CachedRuleLookup) ListRules(ctx context.Context, ruleType string) ([]models.AnalysisRule, error) {
	return c.next.ListRules(ctx, ruleType)
}

// DeleteRule removes the rule and invalidates the cache.
func (c *CachedRuleLookup) DeleteRule(ctx context.Context, id string) error {
	if err := c.next.DeleteRule(ctx, id); err != nil {
		return err
	}
	c.invalidate(ctx)
	return nil
}

func (c *CachedRuleLookup) invalidate(ctx context.Context) {
	if err := c.Invalidate(ctx); err != nil {
		c.log.Warn("rule cache invalidation failed", "error", err)
	}
}

// Invalidate drops every cached lookup.
func (c *CachedRuleLookup) Invalidate(ctx context.Context) error {
	iter := c.redis.Scan(ctx, 0, ruleCachePrefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to scan rule cache: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}
	if err := c.redis.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to clear rule cache: %w", err)
	}
	return nil
}
