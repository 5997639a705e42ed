package classify

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/accelml/livingreview/internal/paper"
)

// Embedding classifier scoring rules.
const (
	// similarityThreshold is the floor for assigning a category by
	// embedding similarity.
	similarityThreshold = 0.25

	// reviewsThreshold is the stricter floor for the Reviews category,
	// which additionally needs a survey term in the text.
	reviewsThreshold = 0.45

	// novelAppsThreshold is the stricter floor for Novel Applications,
	// which otherwise attracts everything slightly unusual.
	novelAppsThreshold = 0.30
)

// EmbeddingClassifier scores papers by cosine similarity between the paper
// text and each category description. Category embeddings are computed
// once per process and cached.
type EmbeddingClassifier struct {
	provider Provider

	mu       sync.Mutex
	catEmbed map[string]Embedding
}

// NewEmbeddingClassifier creates the embedding classifier.
func NewEmbeddingClassifier(provider Provider) *EmbeddingClassifier {
	return &EmbeddingClassifier{provider: provider}
}

// Classify embeds the paper text and compares it against every category
// description.
func (e *EmbeddingClassifier) Classify(ctx context.Context, p *paper.Paper) (Assignment, error) {
	cats, err := e.categoryEmbeddings(ctx)
	if err != nil {
		return Assignment{}, err
	}

	lowtxt := paperText(p)
	text := p.Title + ". " + p.Abstract
	emb, err := e.provider.Embed(ctx, text)
	if err != nil {
		return Assignment{}, fmt.Errorf("embedding paper %s: %w", p.ID, err)
	}

	var scored []paper.CategoryScore
	for _, c := range Taxonomy {
		sim, err := CosineSimilarity(emb, cats[c.Label])
		if err != nil {
			return Assignment{}, err
		}

		switch c.Label {
		case "Reviews":
			if sim >= reviewsThreshold && containsAny(lowtxt, reviewTerms) {
				scored = append(scored, paper.CategoryScore{Label: c.Label, Score: sim})
			}
			continue
		case "Novel Applications":
			if sim < novelAppsThreshold {
				continue
			}
		}

		if sim >= similarityThreshold {
			scored = append(scored, paper.CategoryScore{Label: c.Label, Score: sim})
		}
	}

	return finalize(scored, lowtxt), nil
}

// categoryEmbeddings embeds every category description once.
func (e *EmbeddingClassifier) categoryEmbeddings(ctx context.Context) (map[string]Embedding, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.catEmbed != nil {
		return e.catEmbed, nil
	}

	embeds := make(map[string]Embedding, len(Taxonomy))
	for _, c := range Taxonomy {
		emb, err := e.provider.Embed(ctx, c.Description)
		if err != nil {
			return nil, fmt.Errorf("embedding category %q: %w", c.Label, err)
		}
		embeds[c.Label] = emb
	}
	e.catEmbed = embeds
	return embeds, nil
}

// RelevanceFilter decides whether a record belongs in the review at all.
type RelevanceFilter struct {
	provider Provider
	keywords struct {
		accel []string
		ml    []string
	}

	// Embedding relevance thresholds.
	AccelThreshold float64
	MLThreshold    float64

	mu    sync.Mutex
	refs  map[string]Embedding
	ready bool
}

// NewRelevanceFilter creates a relevance filter. A nil provider falls back
// to pure keyword matching.
func NewRelevanceFilter(provider Provider, accelKeywords, mlKeywords []string) *RelevanceFilter {
	f := &RelevanceFilter{
		provider:       provider,
		AccelThreshold: 0.13,
		MLThreshold:    0.18,
	}
	f.keywords.accel = lowerAll(accelKeywords)
	f.keywords.ml = lowerAll(mlKeywords)
	return f
}

// Relevant reports whether the record is about ML for accelerator physics.
// Negative terms veto first; then either embedding scores or keyword
// presence decide.
func (f *RelevanceFilter) Relevant(ctx context.Context, r *paper.Record) (bool, error) {
	lowtxt := strings.ToLower(r.Title + " " + r.Abstract)
	if containsAny(lowtxt, negativeTerms) {
		return false, nil
	}

	if f.provider == nil {
		return containsAny(lowtxt, f.keywords.accel) && containsAny(lowtxt, f.keywords.ml), nil
	}

	refs, err := f.referenceEmbeddings(ctx)
	if err != nil {
		return false, err
	}
	emb, err := f.provider.Embed(ctx, r.Title+". "+r.Abstract)
	if err != nil {
		return false, err
	}

	accel, err := CosineSimilarity(emb, refs["accel"])
	if err != nil {
		return false, err
	}
	ml, err := CosineSimilarity(emb, refs["ml"])
	if err != nil {
		return false, err
	}
	noise, err := CosineSimilarity(emb, refs["noise"])
	if err != nil {
		return false, err
	}

	return accel >= f.AccelThreshold && ml >= f.MLThreshold && accel > noise, nil
}

func (f *RelevanceFilter) referenceEmbeddings(ctx context.Context) (map[string]Embedding, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.ready {
		return f.refs, nil
	}

	refs := make(map[string]Embedding, 3)
	for name, text := range map[string]string{
		"accel": accelQuery,
		"ml":    mlQuery,
		"noise": noiseQuery,
	} {
		emb, err := f.provider.Embed(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("embedding %s reference: %w", name, err)
		}
		refs[name] = emb
	}
	f.refs = refs
	f.ready = true
	return refs, nil
}

func lowerAll(terms []string) []string {
	out := make([]string, len(terms))
	for i, t := range terms {
		out[i] = strings.ToLower(t)
	}
	return out
}
