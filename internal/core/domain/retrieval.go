package domain

import (
	"encoding/json"
	"fmt"
)

type Strategy uint8

const (
	StrategyVector Strategy = iota
	StrategyContactBoost
	StrategyKeyword
)

func (s Strategy) String() string {
	switch s {
	case StrategyVector:
		return "vector"
	case StrategyContactBoost:
		return "contact-boost"
	case StrategyKeyword:
		return "keyword"
	default:
		return fmt.Sprintf("strategy(%d)", uint8(s))
	}
}

func (s Strategy) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// SearchFilter narrows a session-scoped search.
type SearchFilter struct {
	PriorityOnly bool
}

// ScoredChunk is a raw hit from a vector store or keyword index.
type ScoredChunk struct {
	Chunk Chunk
	Score float64
}

// RetrievalCandidate is a fused retrieval hit. Strategy names the
// strategy that contributed the highest weighted share of Score.
type RetrievalCandidate struct {
	Chunk    Chunk    `json:"chunk"`
	Strategy Strategy `json:"strategy"`
	RawScore float64  `json:"raw_score"`
	Score    float64  `json:"score"`
}
