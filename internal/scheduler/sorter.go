package scheduler

import (
	"sort"

	"github.com/alexanderramin/stagegate/internal/domain"
)

// RAGPriority returns a sort priority (lower = more urgent).
func RAGPriority(r domain.RAG) int {
	switch r {
	case domain.RAGRed:
		return 0
	case domain.RAGAmber:
		return 1
	default:
		return 2
	}
}

// Rankable is anything that can be ordered on a portfolio board.
type Rankable interface {
	RankRAG() domain.RAG
	RankSlip() int
	RankName() string
}

// SortPortfolio orders items by the canonical board rules:
// 1. RAG: red > amber > green
// 2. Max slip: larger first
// 3. Name: lexical ascending
func SortPortfolio[T Rankable](items []T) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		pa, pb := RAGPriority(a.RankRAG()), RAGPriority(b.RankRAG())
		if pa != pb {
			return pa < pb
		}
		if a.RankSlip() != b.RankSlip() {
			return a.RankSlip() > b.RankSlip()
		}
		return a.RankName() < b.RankName()
	})
}
