package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/jjikmuck/jjikmuck/backend/internal/models"
	"github.com/jjikmuck/jjikmuck/backend/internal/types"
	"gorm.io/gorm"
)

// ErrInvalidPeriod is returned for a stats period other than week, month or all.
var ErrInvalidPeriod = errors.New("period must be week, month or all")

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
	topAllergenCount    = 5
)

var statsNutrients = []string{types.NutrientCalories, types.NutrientSodium, types.NutrientSugar}

// HistoryService stores analyses per user and summarizes them.
type HistoryService struct {
	db  *gorm.DB
	now func() time.Time
}

// NewHistoryService creates a new HistoryService instance
func NewHistoryService(db *gorm.DB) *HistoryService {
	return &HistoryService{db: db, now: time.Now}
}

// Record stores one analysis. Without a user id nothing is stored and nil is returned.
func (s *HistoryService) Record(ctx context.Context, userID string, product types.ProductData, report types.AnalysisReport) (*models.ScanHistory, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, nil
	}

	entry := &models.ScanHistory{
		UserID:            userID,
		ProductName:       product.DisplayName(),
		Suitability:       string(report.Analysis.Suitability),
		Score:             report.Analysis.Score,
		Source:            string(report.Source),
		DetectedAllergens: models.JSONBStringArray{},
		DietWarnings:      models.JSONBStringArray{},
		Recommendations:   models.JSONBStringArray(append([]string{}, report.Analysis.Recommendations...)),
		Nutrients:         models.JSONBFloatMap(product.NutritionalInfo.Values()),
	}

	seen := map[string]struct{}{}
	addAllergen := func(a string) {
		if a == "" {
			return
		}
		if _, ok := seen[a]; ok {
			return
		}
		seen[a] = struct{}{}
		entry.DetectedAllergens = append(entry.DetectedAllergens, a)
	}
	for _, f := range report.Findings {
		switch f.Kind {
		case types.FindingAllergy:
			addAllergen(f.Allergen)
		case types.FindingDiet:
			entry.DietWarnings = append(entry.DietWarnings, f.Message)
		}
	}
	for _, d := range report.RuleResult.Dangers {
		addAllergen(d.Allergen)
	}

	if err := s.db.WithContext(ctx).Create(entry).Error; err != nil {
		return nil, fmt.Errorf("failed to record scan history: %w", err)
	}
	return entry, nil
}

// List returns a user's scans, newest first.
func (s *HistoryService) List(ctx context.Context, userID string, limit, offset int) ([]models.ScanHistory, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	if offset < 0 {
		offset = 0
	}

	var entries []models.ScanHistory
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list scan history: %w", err)
	}
	return entries, nil
}

// Stats summarizes a user's scans over week, month or all. An empty period means all.
func (s *HistoryService) Stats(ctx context.Context, userID, period string) (*types.ScanStats, error) {
	period = strings.ToLower(strings.TrimSpace(period))
	if period == "" {
		period = "all"
	}

	q := s.db.WithContext(ctx).Where("user_id = ?", userID)
	switch period {
	case "week":
		q = q.Where("created_at >= ?", s.now().AddDate(0, 0, -7))
	case "month":
		q = q.Where("created_at >= ?", s.now().AddDate(0, -1, 0))
	case "all":
	default:
		return nil, ErrInvalidPeriod
	}

	var entries []models.ScanHistory
	if err := q.Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("failed to load scan history: %w", err)
	}
	return summarize(period, entries), nil
}

func summarize(period string, entries []models.ScanHistory) *types.ScanStats {
	stats := &types.ScanStats{
		Period:     period,
		TotalScans: len(entries),
		SuitabilityCounts: map[types.Suitability]int{
			types.SuitabilitySafe:    0,
			types.SuitabilityWarning: 0,
			types.SuitabilityDanger:  0,
		},
		TopAllergens:     []types.CountEntry{},
		AverageNutrition: map[string]float64{},
	}
	if len(entries) == 0 {
		return stats
	}

	allergens := map[string]int{}
	sums := map[string]float64{}
	counts := map[string]int{}
	var scoreSum int
	for _, e := range entries {
		stats.SuitabilityCounts[types.Suitability(e.Suitability)]++
		scoreSum += e.Score
		stats.DietViolationCount += len(e.DietWarnings)
		for _, a := range e.DetectedAllergens {
			allergens[a]++
		}
		for _, n := range statsNutrients {
			if v, ok := e.Nutrients[n]; ok {
				sums[n] += v
				counts[n]++
			}
		}
	}

	stats.AverageScore = round1(float64(scoreSum) / float64(len(entries)))
	for _, n := range statsNutrients {
		if counts[n] > 0 {
			stats.AverageNutrition[n] = round1(sums[n] / float64(counts[n]))
		}
	}

	for name, count := range allergens {
		stats.TopAllergens = append(stats.TopAllergens, types.CountEntry{Name: name, Count: count})
	}
	sort.Slice(stats.TopAllergens, func(i, j int) bool {
		a, b := stats.TopAllergens[i], stats.TopAllergens[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return a.Name < b.Name
	})
	if len(stats.TopAllergens) > topAllergenCount {
		stats.TopAllergens = stats.TopAllergens[:topAllergenCount]
	}
	return stats
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// ToScanRecord converts a stored entry to its API view.
func ToScanRecord(e models.ScanHistory) types.ScanRecord {
	return types.ScanRecord{
		ID:                e.ID.String(),
		ProductName:       e.ProductName,
		Suitability:       types.Suitability(e.Suitability),
		Score:             e.Score,
		Source:            types.AnalysisSource(e.Source),
		DetectedAllergens: e.DetectedAllergens,
		DietWarnings:      e.DietWarnings,
		Recommendations:   e.Recommendations,
		CreatedAt:         e.CreatedAt,
	}
}
