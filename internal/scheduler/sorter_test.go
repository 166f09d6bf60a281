package scheduler

import (
	"testing"

	"github.com/alexanderramin/stagegate/internal/domain"
	"github.com/stretchr/testify/assert"
)

type boardRow struct {
	name string
	rag  domain.RAG
	slip int
}

func (r boardRow) RankRAG() domain.RAG { return r.rag }
func (r boardRow) RankSlip() int       { return r.slip }
func (r boardRow) RankName() string    { return r.name }

func TestSortPortfolio(t *testing.T) {
	rows := []boardRow{
		{"Zeta", domain.RAGGreen, 0},
		{"Alpha", domain.RAGAmber, 2},
		{"Beta", domain.RAGRed, 9},
		{"Gamma", domain.RAGRed, 30},
		{"Delta", domain.RAGAmber, 2},
	}
	SortPortfolio(rows)

	var names []string
	for _, r := range rows {
		names = append(names, r.name)
	}
	assert.Equal(t, []string{"Gamma", "Beta", "Alpha", "Delta", "Zeta"}, names)
}

func TestRAGPriority(t *testing.T) {
	assert.Less(t, RAGPriority(domain.RAGRed), RAGPriority(domain.RAGAmber))
	assert.Less(t, RAGPriority(domain.RAGAmber), RAGPriority(domain.RAGGreen))
	assert.Equal(t, RAGPriority(domain.RAGGreen), RAGPriority("unknown"))
}
