// Package memory provides the Memory Item entity: a row of episodic or
// semantic content an agent has accumulated, independent of the vector
// embedding used to retrieve it semantically (see domain/vector).
package memory

import (
	"encoding/json"
	"time"
)

// Kind distinguishes how a memory item was produced.
type Kind string

const (
	KindEpisodic   Kind = "episodic"
	KindSemantic   Kind = "semantic"
	KindProcedural Kind = "procedural"
)

// Item is a single unit of an agent's memory.
type Item struct {
	ID      string `json:"id"`
	AgentID string `json:"agent_id"`
	RunID   string `json:"run_id,omitempty"`

	Kind    Kind   `json:"kind"`
	Content string `json:"content"`

	Metadata json.RawMessage `json:"metadata,omitempty"`

	AccessCount int       `json:"access_count"`
	LastAccessed time.Time `json:"last_accessed,omitzero"`
	CreatedAt    time.Time `json:"created_at"`
}

// New creates an Item with zero access count.
func New(id, agentID, runID string, kind Kind, content string, metadata json.RawMessage) *Item {
	return &Item{
		ID:        id,
		AgentID:   agentID,
		RunID:     runID,
		Kind:      kind,
		Content:   content,
		Metadata:  metadata,
		CreatedAt: time.Now(),
	}
}

// Touch records an access, incrementing AccessCount and stamping LastAccessed.
func (i *Item) Touch() {
	i.AccessCount++
	i.LastAccessed = time.Now()
}
