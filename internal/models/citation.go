// Package models defines the shared data types for the INSEEK client.
package models

import "sort"

// Citation is a retrieved legal-text excerpt with provenance metadata and a
// relevance score, shown alongside an answer. Immutable once received.
type Citation struct {
	LawTitle        string  `json:"law_title"`
	City            string  `json:"city"`
	Department      string  `json:"department"`
	ChunkContent    string  `json:"chunk_content"`
	SimilarityScore float64 `json:"similarity_score"`
}

// SortCitations orders citations by descending similarity score. The sort is
// stable so ties keep their arrival order.
func SortCitations(citations []Citation) {
	sort.SliceStable(citations, func(i, j int) bool {
		return citations[i].SimilarityScore > citations[j].SimilarityScore
	})
}
