package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/jjikmuck/jjikmuck/backend/internal/logger"
	"github.com/jjikmuck/jjikmuck/backend/internal/models"
	"github.com/jjikmuck/jjikmuck/backend/internal/types"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrInvalidKnowledge is returned when a document lacks content or a category.
var ErrInvalidKnowledge = errors.New("knowledge document requires content and category")

const keywordCandidateLimit = 200

// KnowledgeStore stores knowledge documents and searches them by similarity.
type KnowledgeStore struct {
	db       *gorm.DB
	embedder Embedder
}

// NewKnowledgeStore creates a store. A nil embedder limits search to keyword ranking.
func NewKnowledgeStore(db *gorm.DB, embedder Embedder) *KnowledgeStore {
	return &KnowledgeStore{db: db, embedder: embedder}
}

// AddKnowledge embeds title and content and stores the document.
func (s *KnowledgeStore) AddKnowledge(ctx context.Context, doc *models.KnowledgeDocument) (*models.KnowledgeDocument, error) {
	doc.Category = strings.ToLower(strings.TrimSpace(doc.Category))
	if strings.TrimSpace(doc.Content) == "" || doc.Category == "" {
		return nil, ErrInvalidKnowledge
	}
	if doc.Keywords == nil {
		doc.Keywords = models.JSONBStringArray{}
	}
	if s.embedder != nil {
		vec, err := s.embedder.Embed(ctx, strings.TrimSpace(doc.Title+"\n"+doc.Content))
		if err != nil {
			return nil, fmt.Errorf("failed to embed knowledge document: %w", err)
		}
		doc.Embedding = &vec
	}
	if err := s.db.WithContext(ctx).Create(doc).Error; err != nil {
		return nil, fmt.Errorf("failed to create knowledge document: %w", err)
	}
	return doc, nil
}

// Search returns up to k documents ordered by descending similarity.
// On postgres similarity is 1 - cosine distance. Elsewhere, or without an
// embedder, it is the share of query words found in the document.
func (s *KnowledgeStore) Search(ctx context.Context, query string, k int, category string) ([]types.KnowledgeHit, error) {
	if k <= 0 {
		return []types.KnowledgeHit{}, nil
	}
	if s.embedder == nil || s.db.Dialector.Name() != "postgres" {
		return s.keywordSearch(ctx, query, k, category)
	}

	vec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	hits := []types.KnowledgeHit{}
	q := s.db.WithContext(ctx).
		Model(&models.KnowledgeDocument{}).
		Select("title, content, category, 1 - (embedding <=> ?) AS similarity", vec).
		Where("embedding IS NOT NULL")
	if category != "" {
		q = q.Where("category = ?", category)
	}
	err = q.Clauses(clause.OrderBy{Expression: clause.Expr{SQL: "embedding <=> ?", Vars: []interface{}{vec}}}).
		Limit(k).
		Scan(&hits).Error
	if err != nil {
		return nil, fmt.Errorf("failed to search knowledge: %w", err)
	}
	return hits, nil
}

func (s *KnowledgeStore) keywordSearch(ctx context.Context, query string, k int, category string) ([]types.KnowledgeHit, error) {
	var docs []models.KnowledgeDocument
	q := s.db.WithContext(ctx).Order("created_at ASC").Limit(keywordCandidateLimit)
	if category != "" {
		q = q.Where("category = ?", category)
	}
	if err := q.Find(&docs).Error; err != nil {
		return nil, fmt.Errorf("failed to search knowledge: %w", err)
	}

	words := tokenize(query)
	hits := make([]types.KnowledgeHit, 0, len(docs))
	for _, d := range docs {
		text := strings.ToLower(d.Title + " " + d.Content + " " + strings.Join(d.Keywords, " "))
		var matched int
		for _, w := range words {
			if strings.Contains(text, w) {
				matched++
			}
		}
		var sim float64
		if len(words) > 0 {
			sim = float64(matched) / float64(len(words))
		}
		hits = append(hits, types.KnowledgeHit{Title: d.Title, Content: d.Content, Category: d.Category, Similarity: sim})
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Similarity > hits[j].Similarity })
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

// ContextBuilder assembles the retrieved context for one analysis.
type ContextBuilder struct {
	searcher KnowledgeSearcher
	log      *logger.Logger
}

// NewContextBuilder creates a builder. A nil searcher always yields no context.
func NewContextBuilder(searcher KnowledgeSearcher, log *logger.Logger) *ContextBuilder {
	if log == nil {
		log = logger.Nop()
	}
	return &ContextBuilder{searcher: searcher, log: log}
}

type contextQuery struct {
	text     string
	k        int
	category string
}

// contextQueries returns the retrieval queries for a user and product, in
// the order their results are concatenated: allergies, one per disease,
// then daily nutrients.
func contextQueries(allergies, diseases, productAllergens []string) []contextQuery {
	var queries []contextQuery
	if terms := append(append([]string{}, allergies...), productAllergens...); len(terms) > 0 {
		queries = append(queries, contextQuery{text: "알레르기 " + strings.Join(terms, " "), k: 2, category: models.KnowledgeAllergies})
	}
	for _, d := range diseases {
		queries = append(queries, contextQuery{text: d + " 식이 관리", k: 2, category: models.KnowledgeDiseases})
	}
	return append(queries, contextQuery{text: "일일 권장 영양소", k: 1, category: models.KnowledgeNutrition})
}

// Build runs every query concurrently and joins the documents with blank
// lines. A failed query contributes nothing; Build itself never fails.
func (b *ContextBuilder) Build(ctx context.Context, allergies, diseases, productAllergens []string) string {
	if b.searcher == nil {
		return ""
	}
	queries := contextQueries(allergies, diseases, productAllergens)
	slots := make([][]types.KnowledgeHit, len(queries))

	g, gctx := errgroup.WithContext(ctx)
	for i, q := range queries {
		i, q := i, q
		g.Go(func() error {
			hits, err := b.searcher.Search(gctx, q.text, q.k, q.category)
			if err != nil {
				b.log.Warn("knowledge search failed", "category", q.category, "error", err)
				return nil
			}
			slots[i] = hits
			return nil
		})
	}
	_ = g.Wait()

	var parts []string
	for _, hits := range slots {
		for _, h := range hits {
			if strings.TrimSpace(h.Content) != "" {
				parts = append(parts, h.Content)
			}
		}
	}
	return strings.Join(parts, "\n\n")
}
