package config

import (
	"os"
	"strconv"
	"strings"

	domainconfig "github.com/felixgeelhaar/agent-go/domain/config"
)

// modelProviderAPIKeyPrefix is the prefix spec.md §6 uses for per-provider
// API keys, e.g. MODEL_PROVIDER_API_KEY_OPENAI.
const modelProviderAPIKeyPrefix = "MODEL_PROVIDER_API_KEY_"

const (
	defaultVectorBackend          = "local"
	defaultApprovalTimeoutSeconds = 3600
	defaultEmbeddingModel         = "hash-1536"
)

// LoadRuntimeFromEnv reads the environment variables spec.md §6 names,
// falling back to the documented defaults for anything unset.
func LoadRuntimeFromEnv() domainconfig.RuntimeSettings {
	return domainconfig.RuntimeSettings{
		VectorBackend:          envOrDefault("VECTOR_BACKEND", defaultVectorBackend),
		VectorPath:             os.Getenv("VECTOR_PATH"),
		ApprovalTimeoutSeconds: envIntOrDefault("APPROVAL_TIMEOUT_SECONDS", defaultApprovalTimeoutSeconds),
		EmbeddingModel:         envOrDefault("EMBEDDING_MODEL", defaultEmbeddingModel),
		ProviderAPIKeys:        providerAPIKeysFromEnv(),
	}
}

// providerAPIKeysFromEnv collects every MODEL_PROVIDER_API_KEY_* variable
// into a map keyed by the lowercased provider name.
func providerAPIKeysFromEnv() map[string]string {
	keys := make(map[string]string)
	for _, kv := range os.Environ() {
		name, value, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(name, modelProviderAPIKeyPrefix) || value == "" {
			continue
		}
		provider := strings.ToLower(strings.TrimPrefix(name, modelProviderAPIKeyPrefix))
		if provider == "" {
			continue
		}
		keys[provider] = value
	}
	return keys
}

func envOrDefault(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}

func envIntOrDefault(name string, fallback int) int {
	v := os.Getenv(name)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}
