// Package document holds the data model shared by every retrieval
// component: the indexed unit (Document) and the ranked record returned
// to a caller (Result).
package document

import "github.com/google/uuid"

// Metadata is an opaque bag of primitive values forwarded on retrieval.
// The retriever never inspects or mutates it. MemoryIndex returns it
// verbatim; the chromem-backed dense index returns every value as a
// string.
type Metadata map[string]interface{}

// Document is an indexed unit. ID must be non-empty and unique within a
// collection; Content must be non-empty and is used for both embedding
// and tokenization.
type Document struct {
	ID       string   `json:"id"`
	Content  string   `json:"content"`
	Metadata Metadata `json:"metadata,omitempty"`
}

// NewID generates a random stable id for callers that don't already have
// one. The retrieval core itself never calls this: ids are caller-supplied
// by contract (spec §3).
func NewID() string {
	return uuid.NewString()
}

// SearchMode distinguishes a fully hybrid result from one that fell back
// to dense-only, either because hybrid mode is disabled or because the
// sparse index failed for this query.
type SearchMode string

const (
	SearchModeHybrid   SearchMode = "hybrid"
	SearchModeSemantic SearchMode = "semantic"
)

// Scores is the per-component score triplet attached to every result.
// Keyword is a pointer so a dense-only result can represent "no keyword
// signal was computed" distinctly from a signal that scored zero.
type Scores struct {
	Combined float64  `json:"combined"`
	Semantic float64  `json:"semantic"`
	Keyword  *float64 `json:"keyword"`
}

// Result is one ranked record returned by a retrieval query.
type Result struct {
	ID         string     `json:"id"`
	Content    string     `json:"content"`
	Metadata   Metadata   `json:"metadata,omitempty"`
	Scores     Scores     `json:"scores"`
	SearchType SearchMode `json:"search_type"`
}
