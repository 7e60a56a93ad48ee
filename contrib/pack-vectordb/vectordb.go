// Package vectordb provides vector-store-backed tools for agent-go.
//
// Tools returned by Tools wrap a domain/vector.Store so an agent can manage
// and query its own semantic memory directly as actions:
//   - vector_upsert: Embed and store a piece of text as a memory vector
//   - vector_query: Find the most similar stored vectors to a query string
//   - vector_delete: Remove a vector by ID
//   - vector_list: List vectors for the agent, optionally filtered
//   - vector_stats: Report the agent's vector collection size and dimension
package vectordb

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/felixgeelhaar/agent-go/domain/tool"
	"github.com/felixgeelhaar/agent-go/domain/vector"
)

// Tools builds the vector-store tool set for the given agent, reading and
// writing through store. Every tool is scoped to agentID; callers running
// multiple agents against one store should build a fresh set per agent.
func Tools(store vector.Store, agentID string) []tool.Tool {
	return []tool.Tool{
		vectorUpsert(store, agentID),
		vectorQuery(store, agentID),
		vectorDelete(store),
		vectorList(store, agentID),
		vectorStats(store, agentID),
	}
}

type upsertInput struct {
	MemoryID string            `json:"memory_id"`
	Text     string            `json:"text"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

func vectorUpsert(store vector.Store, agentID string) tool.Tool {
	return tool.NewBuilder("vector_upsert").
		WithDescription("Embed and store a piece of text as a memory vector").
		Idempotent().
		WithRiskLevel(tool.RiskMedium).
		WithHandler(func(ctx context.Context, input json.RawMessage) (tool.Result, error) {
			var in upsertInput
			if err := json.Unmarshal(input, &in); err != nil {
				return tool.Result{}, fmt.Errorf("vector_upsert: %w", err)
			}
			if in.Text == "" {
				return tool.Result{}, fmt.Errorf("vector_upsert: text is required")
			}

			embedding, err := store.GenerateEmbedding(ctx, in.Text)
			if err != nil {
				return tool.Result{}, fmt.Errorf("vector_upsert: generating embedding: %w", err)
			}

			v := &vector.Vector{
				ID:        in.MemoryID,
				AgentID:   agentID,
				MemoryID:  in.MemoryID,
				Embedding: embedding,
				Text:      in.Text,
				Metadata:  in.Metadata,
				CreatedAt: time.Now(),
			}
			if err := store.StoreMemory(ctx, v); err != nil {
				return tool.Result{}, fmt.Errorf("vector_upsert: %w", err)
			}

			out, err := json.Marshal(map[string]any{"id": v.ID, "dimension": len(embedding)})
			if err != nil {
				return tool.Result{}, fmt.Errorf("vector_upsert: %w", err)
			}
			return tool.NewResult(out), nil
		}).
		MustBuild()
}

type queryInput struct {
	Query string `json:"query"`
	TopK  int    `json:"top_k,omitempty"`
}

func vectorQuery(store vector.Store, agentID string) tool.Tool {
	return tool.NewBuilder("vector_query").
		WithDescription("Find the most similar stored vectors to a query string").
		ReadOnly().
		WithHandler(func(ctx context.Context, input json.RawMessage) (tool.Result, error) {
			var in queryInput
			if err := json.Unmarshal(input, &in); err != nil {
				return tool.Result{}, fmt.Errorf("vector_query: %w", err)
			}
			topK := in.TopK
			if topK <= 0 {
				topK = 5
			}

			embedding, err := store.GenerateEmbedding(ctx, in.Query)
			if err != nil {
				return tool.Result{}, fmt.Errorf("vector_query: generating embedding: %w", err)
			}

			results, err := store.SearchSimilar(ctx, agentID, embedding, topK)
			if err != nil {
				return tool.Result{}, fmt.Errorf("vector_query: %w", err)
			}

			out, err := json.Marshal(map[string]any{"results": results})
			if err != nil {
				return tool.Result{}, fmt.Errorf("vector_query: %w", err)
			}
			return tool.NewResult(out), nil
		}).
		MustBuild()
}

type deleteInput struct {
	ID string `json:"id"`
}

func vectorDelete(store vector.Store) tool.Tool {
	return tool.NewBuilder("vector_delete").
		WithDescription("Delete a vector by ID").
		Destructive().
		WithHandler(func(ctx context.Context, input json.RawMessage) (tool.Result, error) {
			var in deleteInput
			if err := json.Unmarshal(input, &in); err != nil {
				return tool.Result{}, fmt.Errorf("vector_delete: %w", err)
			}
			if in.ID == "" {
				return tool.Result{}, fmt.Errorf("vector_delete: id is required")
			}
			if err := store.DeleteMemory(ctx, in.ID); err != nil {
				return tool.Result{}, fmt.Errorf("vector_delete: %w", err)
			}
			out, err := json.Marshal(map[string]any{"deleted": in.ID})
			if err != nil {
				return tool.Result{}, fmt.Errorf("vector_delete: %w", err)
			}
			return tool.NewResult(out), nil
		}).
		MustBuild()
}

type listInput struct {
	IDPrefix string            `json:"id_prefix,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty"`
	Limit    int               `json:"limit,omitempty"`
	Offset   int               `json:"offset,omitempty"`
}

func vectorList(store vector.Store, agentID string) tool.Tool {
	return tool.NewBuilder("vector_list").
		WithDescription("List vectors for the agent with optional filtering and pagination").
		ReadOnly().
		WithHandler(func(ctx context.Context, input json.RawMessage) (tool.Result, error) {
			var in listInput
			if len(input) > 0 {
				if err := json.Unmarshal(input, &in); err != nil {
					return tool.Result{}, fmt.Errorf("vector_list: %w", err)
				}
			}

			vectors, err := store.List(ctx, vector.ListFilter{
				AgentID:  agentID,
				IDPrefix: in.IDPrefix,
				Metadata: in.Metadata,
				Limit:    in.Limit,
				Offset:   in.Offset,
			})
			if err != nil {
				return tool.Result{}, fmt.Errorf("vector_list: %w", err)
			}

			out, err := json.Marshal(map[string]any{"vectors": vectors})
			if err != nil {
				return tool.Result{}, fmt.Errorf("vector_list: %w", err)
			}
			return tool.NewResult(out), nil
		}).
		MustBuild()
}

func vectorStats(store vector.Store, agentID string) tool.Tool {
	return tool.NewBuilder("vector_stats").
		WithDescription("Report the agent's vector collection size and embedding dimension").
		ReadOnly().
		Cacheable().
		WithHandler(func(ctx context.Context, _ json.RawMessage) (tool.Result, error) {
			stats, err := store.GetCollectionStats(ctx, agentID)
			if err != nil {
				return tool.Result{}, fmt.Errorf("vector_stats: %w", err)
			}
			out, err := json.Marshal(stats)
			if err != nil {
				return tool.Result{}, fmt.Errorf("vector_stats: %w", err)
			}
			return tool.NewResult(out), nil
		}).
		MustBuild()
}
