package memory_test

import (
	"testing"

	"github.com/felixgeelhaar/agent-go/domain/memory"
)

func TestNewItemZeroAccessCount(t *testing.T) {
	item := memory.New("m-1", "agent-1", "run-1", memory.KindEpisodic, "did a thing", nil)

	if item.AccessCount != 0 {
		t.Errorf("AccessCount = %d, want 0", item.AccessCount)
	}
	if !item.LastAccessed.IsZero() {
		t.Error("LastAccessed should be zero before Touch")
	}
}

func TestItemTouch(t *testing.T) {
	item := memory.New("m-1", "agent-1", "", memory.KindSemantic, "fact", nil)

	item.Touch()
	item.Touch()

	if item.AccessCount != 2 {
		t.Errorf("AccessCount = %d, want 2", item.AccessCount)
	}
	if item.LastAccessed.IsZero() {
		t.Error("LastAccessed should be set after Touch")
	}
}
