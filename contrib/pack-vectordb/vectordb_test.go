package vectordb

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/felixgeelhaar/agent-go/infrastructure/vectorstore"
)

func TestTools_UpsertQueryDelete(t *testing.T) {
	store := vectorstore.NewMemoryStore(nil)
	tools := Tools(store, "agent-1")

	byName := make(map[string]int)
	for i, tl := range tools {
		byName[tl.Name()] = i
	}
	for _, name := range []string{"vector_upsert", "vector_query", "vector_delete", "vector_list", "vector_stats"} {
		if _, ok := byName[name]; !ok {
			t.Fatalf("missing tool %s", name)
		}
	}

	ctx := context.Background()

	upsertIn, _ := json.Marshal(upsertInput{MemoryID: "mem-1", Text: "the quick brown fox"})
	res, err := tools[byName["vector_upsert"]].Execute(ctx, upsertIn)
	if err != nil {
		t.Fatalf("vector_upsert: %v", err)
	}
	if res.IsError() {
		t.Fatalf("vector_upsert returned error result: %s", res.OutputString())
	}

	queryIn, _ := json.Marshal(queryInput{Query: "quick fox", TopK: 3})
	res, err = tools[byName["vector_query"]].Execute(ctx, queryIn)
	if err != nil {
		t.Fatalf("vector_query: %v", err)
	}
	var queryOut struct {
		Results []struct {
			MemoryID string `json:"memory_id"`
		} `json:"results"`
	}
	if err := json.Unmarshal(res.Output, &queryOut); err != nil {
		t.Fatalf("unmarshal query output: %v", err)
	}
	if len(queryOut.Results) != 1 || queryOut.Results[0].MemoryID != "mem-1" {
		t.Fatalf("unexpected query results: %+v", queryOut.Results)
	}

	res, err = tools[byName["vector_stats"]].Execute(ctx, json.RawMessage(`{}`))
	if err != nil {
		t.Fatalf("vector_stats: %v", err)
	}
	var stats struct {
		VectorCount int64 `json:"vector_count"`
	}
	if err := json.Unmarshal(res.Output, &stats); err != nil {
		t.Fatalf("unmarshal stats output: %v", err)
	}
	if stats.VectorCount != 1 {
		t.Fatalf("VectorCount = %d, want 1", stats.VectorCount)
	}

	deleteIn, _ := json.Marshal(deleteInput{ID: "mem-1"})
	res, err = tools[byName["vector_delete"]].Execute(ctx, deleteIn)
	if err != nil {
		t.Fatalf("vector_delete: %v", err)
	}
	if res.IsError() {
		t.Fatalf("vector_delete returned error result: %s", res.OutputString())
	}

	res, err = tools[byName["vector_query"]].Execute(ctx, queryIn)
	if err != nil {
		t.Fatalf("vector_query after delete: %v", err)
	}
	queryOut.Results = nil
	if err := json.Unmarshal(res.Output, &queryOut); err != nil {
		t.Fatalf("unmarshal query output after delete: %v", err)
	}
	if len(queryOut.Results) != 0 {
		t.Fatalf("expected no results after delete, got %+v", queryOut.Results)
	}
}

func TestTools_UpsertRequiresText(t *testing.T) {
	store := vectorstore.NewMemoryStore(nil)
	tools := Tools(store, "agent-1")

	for _, tl := range tools {
		if tl.Name() != "vector_upsert" {
			continue
		}
		in, _ := json.Marshal(upsertInput{MemoryID: "mem-1"})
		if _, err := tl.Execute(context.Background(), in); err == nil {
			t.Fatal("expected error for empty text")
		}
		return
	}
	t.Fatal("vector_upsert tool not found")
}

func TestTools_ListFiltersByAgent(t *testing.T) {
	store := vectorstore.NewMemoryStore(nil)
	toolsA := Tools(store, "agent-a")
	toolsB := Tools(store, "agent-b")

	ctx := context.Background()
	for _, tl := range toolsA {
		if tl.Name() != "vector_upsert" {
			continue
		}
		in, _ := json.Marshal(upsertInput{MemoryID: "a-1", Text: "hello from a"})
		if _, err := tl.Execute(ctx, in); err != nil {
			t.Fatalf("seed agent-a vector: %v", err)
		}
	}

	for _, tl := range toolsB {
		if tl.Name() != "vector_list" {
			continue
		}
		res, err := tl.Execute(ctx, json.RawMessage(`{}`))
		if err != nil {
			t.Fatalf("vector_list for agent-b: %v", err)
		}
		var out struct {
			Vectors []struct {
				ID string `json:"id"`
			} `json:"vectors"`
		}
		if err := json.Unmarshal(res.Output, &out); err != nil {
			t.Fatalf("unmarshal list output: %v", err)
		}
		if len(out.Vectors) != 0 {
			t.Fatalf("agent-b should see no vectors, got %+v", out.Vectors)
		}
	}
}
