package config_test

import (
	"testing"

	"github.com/felixgeelhaar/agent-go/infrastructure/config"
)

func TestLoadRuntimeFromEnv_Defaults(t *testing.T) {
	rt := config.LoadRuntimeFromEnv()

	if rt.VectorBackend != "local" {
		t.Errorf("VectorBackend = %q, want local", rt.VectorBackend)
	}
	if rt.ApprovalTimeoutSeconds != 3600 {
		t.Errorf("ApprovalTimeoutSeconds = %d, want 3600", rt.ApprovalTimeoutSeconds)
	}
	if rt.EmbeddingModel != "hash-1536" {
		t.Errorf("EmbeddingModel = %q, want hash-1536", rt.EmbeddingModel)
	}
}

func TestLoadRuntimeFromEnv_ReadsOverrides(t *testing.T) {
	t.Setenv("VECTOR_BACKEND", "managed")
	t.Setenv("VECTOR_PATH", "/var/lib/agent-go/vectors")
	t.Setenv("APPROVAL_TIMEOUT_SECONDS", "120")
	t.Setenv("EMBEDDING_MODEL", "hash-384")
	t.Setenv("MODEL_PROVIDER_API_KEY_OPENAI", "sk-test")
	t.Setenv("MODEL_PROVIDER_API_KEY_ANTHROPIC", "sk-ant-test")

	rt := config.LoadRuntimeFromEnv()

	if rt.VectorBackend != "managed" {
		t.Errorf("VectorBackend = %q, want managed", rt.VectorBackend)
	}
	if rt.VectorPath != "/var/lib/agent-go/vectors" {
		t.Errorf("VectorPath = %q, want the configured path", rt.VectorPath)
	}
	if rt.ApprovalTimeoutSeconds != 120 {
		t.Errorf("ApprovalTimeoutSeconds = %d, want 120", rt.ApprovalTimeoutSeconds)
	}
	if rt.EmbeddingModel != "hash-384" {
		t.Errorf("EmbeddingModel = %q, want hash-384", rt.EmbeddingModel)
	}
	if rt.ProviderAPIKeys["openai"] != "sk-test" || rt.ProviderAPIKeys["anthropic"] != "sk-ant-test" {
		t.Errorf("ProviderAPIKeys = %+v, want openai/anthropic keys", rt.ProviderAPIKeys)
	}
}

func TestLoadRuntimeFromEnv_InvalidTimeoutFallsBackToDefault(t *testing.T) {
	t.Setenv("APPROVAL_TIMEOUT_SECONDS", "not-a-number")

	rt := config.LoadRuntimeFromEnv()
	if rt.ApprovalTimeoutSeconds != 3600 {
		t.Errorf("ApprovalTimeoutSeconds = %d, want default 3600 on parse failure", rt.ApprovalTimeoutSeconds)
	}
}
