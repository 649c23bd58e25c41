package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadConfig_AppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
databases:
  milvus:
    address: "localhost:19530"
    collectionName: "emp_manuals"
    dim: 768
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if cfg.Server.HTTPAddr != ":8080" {
		t.Errorf("default HTTPAddr = %q, want :8080", cfg.Server.HTTPAddr)
	}
	if cfg.Storage.StagingDir != "uploaded_pdfs" || cfg.Storage.ArchiveDir != "pdf_database" {
		t.Errorf("default storage dirs = %q/%q", cfg.Storage.StagingDir, cfg.Storage.ArchiveDir)
	}
	if cfg.Retrieval.TopK != 4 || cfg.Retrieval.FetchK != 20 || cfg.Retrieval.SourceCount != 3 {
		t.Errorf("default retrieval = %+v", cfg.Retrieval)
	}
	if cfg.Retrieval.MMRLambda != 0.5 {
		t.Errorf("default mmrLambda = %v, want 0.5", cfg.Retrieval.MMRLambda)
	}
	if cfg.Databases.Milvus.MetricType != "COSINE" {
		t.Errorf("default metricType = %q, want COSINE", cfg.Databases.Milvus.MetricType)
	}
}

func TestLoadConfig_ExplicitValuesWin(t *testing.T) {
	path := writeConfig(t, `
server:
  httpAddr: ":9090"
retrieval:
  topK: 8
  mmrLambda: 0.7
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Server.HTTPAddr != ":9090" {
		t.Errorf("HTTPAddr = %q, want :9090", cfg.Server.HTTPAddr)
	}
	if cfg.Retrieval.TopK != 8 || cfg.Retrieval.MMRLambda != 0.7 {
		t.Errorf("retrieval = %+v", cfg.Retrieval)
	}
}

func TestLoadConfig_ResolvesAPIKeysFromEnv(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "env-gemini-key")
	t.Setenv("OPENAI_API_KEY", "env-openai-key")

	path := writeConfig(t, `
embedding:
  provider: "gemini"
  name: "text-embedding-004"
llm:
  provider: "openai"
  name: "gpt-4o-mini"
  apiKey: "explicit-key"
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Embedding.APIKey != "env-gemini-key" {
		t.Errorf("embedding key = %q, want env fallback", cfg.Embedding.APIKey)
	}
	if cfg.LLM.APIKey != "explicit-key" {
		t.Errorf("llm key = %q, explicit value must win over env", cfg.LLM.APIKey)
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for a missing config file")
	}
}
