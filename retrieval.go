package relay

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/zoobzio/pipz"
)

// Document is one similarity-search hit.
type Document struct {
	Content  string
	Score    float64
	Metadata map[string]string
}

// Retriever is the document-retrieval boundary. Implementations rank
// results by descending similarity; hosted vector stores sit behind this
// interface and their internals are not this library's concern.
type Retriever interface {
	Search(ctx context.Context, query string, k int) ([]Document, error)
}

// MemoryRetriever is a small in-process retriever over a fixed document
// set, scored by term overlap. It backs the demos and tests; production
// callers plug a hosted vector store into the Retriever interface instead.
type MemoryRetriever struct {
	docs      []string
	threshold float64
}

// RetrieverOption configures a MemoryRetriever.
type RetrieverOption func(*MemoryRetriever)

// WithScoreThreshold drops results scoring below min before truncation
// to k.
func WithScoreThreshold(min float64) RetrieverOption {
	return func(r *MemoryRetriever) { r.threshold = min }
}

// NewMemoryRetriever creates a retriever over the given documents.
func NewMemoryRetriever(docs []string, opts ...RetrieverOption) *MemoryRetriever {
	r := &MemoryRetriever{docs: docs}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Search returns up to k documents ranked by descending term-overlap
// score. Results below the configured threshold are filtered out before
// truncation.
func (r *MemoryRetriever) Search(ctx context.Context, query string, k int) ([]Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if k <= 0 {
		return []Document{}, nil
	}

	queryTerms := termSet(query)
	results := make([]Document, 0, len(r.docs))
	for i, doc := range r.docs {
		score := overlapScore(queryTerms, termSet(doc))
		if score <= 0 || score < r.threshold {
			continue
		}
		results = append(results, Document{
			Content:  doc,
			Score:    score,
			Metadata: map[string]string{"index": fmt.Sprintf("%d", i)},
		})
	}

	sort.SliceStable(results, func(a, b int) bool {
		return results[a].Score > results[b].Score
	})
	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}

// NewRetrievalStage builds a stage that searches the retriever with the
// record's queryField value and writes the hits, one per line, to
// outputField for a downstream prompt stage to consume as context.
func NewRetrievalStage(name string, retriever Retriever, queryField, outputField string, k int) Stage {
	return pipz.Apply(name, func(ctx context.Context, rec Record) (Record, error) {
		query, err := rec.String(queryField)
		if err != nil {
			emitStageFailed(ctx, name, err)
			return rec, err
		}

		docs, err := retriever.Search(ctx, query, k)
		if err != nil {
			perr := &ProviderError{Provider: name, Err: err}
			emitStageFailed(ctx, name, perr)
			return rec, perr
		}

		lines := make([]string, len(docs))
		for i, doc := range docs {
			lines[i] = doc.Content
		}
		return rec.With(outputField, strings.Join(lines, "\n")), nil
	})
}

// termSet lowercases and splits text into its unique terms.
func termSet(text string) map[string]bool {
	terms := make(map[string]bool)
	for _, term := range strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !('a' <= r && r <= 'z' || '0' <= r && r <= '9')
	}) {
		terms[term] = true
	}
	return terms
}

// overlapScore is the share of query terms present in the document.
func overlapScore(query, doc map[string]bool) float64 {
	if len(query) == 0 {
		return 0
	}
	hits := 0
	for term := range query {
		if doc[term] {
			hits++
		}
	}
	return float64(hits) / float64(len(query))
}
