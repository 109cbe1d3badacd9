package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jjikmuck/jjikmuck/backend/internal/logger"
	"github.com/jjikmuck/jjikmuck/backend/internal/models"
	"github.com/jjikmuck/jjikmuck/backend/internal/types"
)

// ErrInvalidProfile is returned for profiles that cannot describe a person.
var ErrInvalidProfile = errors.New("invalid user profile")

const (
	maxHeightCM = 300
	maxWeightKG = 700

	defaultRetrievalTimeout = 5 * time.Second
)

// ValidateProfile rejects negative or implausible body measurements.
// Missing values are fine; they only disable the BMI signal.
func ValidateProfile(p types.UserProfile) error {
	if p.Height != nil && (*p.Height < 0 || *p.Height > maxHeightCM) {
		return fmt.Errorf("%w: height %v out of range", ErrInvalidProfile, *p.Height)
	}
	if p.Weight != nil && (*p.Weight < 0 || *p.Weight > maxWeightKG) {
		return fmt.Errorf("%w: weight %v out of range", ErrInvalidProfile, *p.Weight)
	}
	return nil
}

// AnalysisOptions bounds the external calls of one analysis.
type AnalysisOptions struct {
	LLMTimeout       time.Duration
	RetrievalTimeout time.Duration
}

// AnalysisService runs the full analysis pipeline for one product and user.
type AnalysisService struct {
	matcher      *Matcher
	personalizer *Personalizer
	rules        RuleLookup
	retriever    *ContextBuilder
	synth        Synthesizer
	opts         AnalysisOptions
	log          *logger.Logger
}

// NewAnalysisService wires the pipeline. rules, searcher and synth may be nil;
// a nil synth makes every analysis use the fallback.
func NewAnalysisService(matcher *Matcher, personalizer *Personalizer, rules RuleLookup, searcher KnowledgeSearcher, synth Synthesizer, opts AnalysisOptions, log *logger.Logger) *AnalysisService {
	if log == nil {
		log = logger.Nop()
	}
	if opts.LLMTimeout <= 0 {
		opts.LLMTimeout = defaultLLMTimeout
	}
	if opts.RetrievalTimeout <= 0 {
		opts.RetrievalTimeout = defaultRetrievalTimeout
	}
	return &AnalysisService{
		matcher:      matcher,
		personalizer: personalizer,
		rules:        rules,
		retriever:    NewContextBuilder(searcher, log),
		synth:        synth,
		opts:         opts,
		log:          log,
	}
}

// Analyze always returns a well-formed report. Retrieval, rule lookup and
// synthesis failures are logged and replaced by their fallbacks.
func (s *AnalysisService) Analyze(ctx context.Context, profile types.UserProfile, product types.ProductData) types.AnalysisReport {
	profile = profile.Normalized()
	report := s.evaluate(ctx, profile, product)
	if s.synth == nil {
		return s.fallback(profile, product, report)
	}

	rctx, cancel := context.WithTimeout(ctx, s.opts.RetrievalTimeout)
	knowledge := s.retriever.Build(rctx, profile.Allergies, profile.Diseases, product.Allergens)
	cancel()

	systemPrompt := BuildSystemPrompt(&report.Personalization)
	userPrompt := BuildUserPrompt(PromptInput{
		Profile:         profile,
		Product:         product,
		Personalization: &report.Personalization,
		RuleResult:      &report.RuleResult,
		Findings:        report.Findings,
		Context:         knowledge,
	})

	sctx, cancel := context.WithTimeout(ctx, s.opts.LLMTimeout)
	defer cancel()
	analysis, err := s.synth.Synthesize(sctx, systemPrompt, userPrompt)
	if err == nil && analysis == nil {
		err = ErrMalformedAnalysis
	}
	if err != nil {
		s.log.Warn("llm synthesis failed, using fallback", "product", product.DisplayName(), "error", err)
		return s.fallback(profile, product, report)
	}

	report.Analysis = enforceDangerSignals(*analysis, profile, product, report.RuleResult)
	report.Source = types.SourceLLM
	s.log.Info("analysis completed",
		"source", report.Source,
		"suitability", report.Analysis.Suitability,
		"score", report.Analysis.Score,
	)
	return report
}

// AnalyzeRuleOnly skips retrieval and synthesis.
func (s *AnalysisService) AnalyzeRuleOnly(ctx context.Context, profile types.UserProfile, product types.ProductData) types.AnalysisReport {
	profile = profile.Normalized()
	return s.fallback(profile, product, s.evaluate(ctx, profile, product))
}

// evaluate runs every in-process step: matcher, personalization, rules.
func (s *AnalysisService) evaluate(ctx context.Context, profile types.UserProfile, product types.ProductData) types.AnalysisReport {
	report := types.AnalysisReport{
		Findings:        s.matcher.Match(product, profile),
		Personalization: s.personalizer.Personalize(profile),
	}
	if report.Findings == nil {
		report.Findings = []types.MatchWarning{}
	}

	rules := s.lookupRules(ctx, profile)
	report.RuleResult = ApplyRules(rules, product.Allergens, product.NutritionalInfo, &report.Personalization)
	return report
}

func (s *AnalysisService) lookupRules(ctx context.Context, profile types.UserProfile) []models.AnalysisRule {
	if s.rules == nil {
		return nil
	}
	rules, err := s.rules.GetMatchingRules(ctx, profile.Allergies, profile.Diseases)
	if err != nil {
		s.log.Warn("rule lookup failed, continuing without rules", "error", err)
		return nil
	}
	return rules
}

func (s *AnalysisService) fallback(profile types.UserProfile, product types.ProductData, report types.AnalysisReport) types.AnalysisReport {
	report.Analysis = FallbackAnalysis(profile, product, report.RuleResult)
	report.Source = types.SourceFallback
	s.log.Info("analysis completed",
		"source", report.Source,
		"suitability", report.Analysis.Suitability,
		"score", report.Analysis.Score,
	)
	return report
}

// enforceDangerSignals makes a synthesized verdict agree with its own score
// band, the rule dangers and the allergen intersection. The last two always
// mean danger with score 10.
func enforceDangerSignals(a types.RAGAnalysis, profile types.UserProfile, product types.ProductData, ruleResult types.RuleApplicationResult) types.RAGAnalysis {
	if a.Recommendations == nil {
		a.Recommendations = []string{}
	}
	if a.Alternatives == nil {
		a.Alternatives = []types.Alternative{}
	}
	a.Score = ClampScore(a.Score)
	a.Suitability = SuitabilityForScore(a.Score)

	matched := AllergenIntersection(product.Allergens, profile.Allergies)
	if len(ruleResult.Dangers) == 0 && len(matched) == 0 {
		return a
	}
	if a.Suitability == types.SuitabilityDanger && a.Score <= fallbackDangerScore {
		return a
	}

	var prefix []string
	for _, d := range ruleResult.Dangers {
		prefix = append(prefix, fmt.Sprintf("⚠️ %s", d.Message))
	}
	if len(matched) > 0 {
		prefix = append(prefix, fmt.Sprintf("⚠️ 알레르기 유발 성분 감지: %s", joinOr(matched, "")))
	}
	a.Suitability = types.SuitabilityDanger
	a.Score = fallbackDangerScore
	a.Recommendations = append(prefix, a.Recommendations...)
	if a.NutritionalAdvice == "" {
		a.NutritionalAdvice = adviceAllergyDanger
	}
	return a
}
