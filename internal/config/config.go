package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	HTTPAddr string `yaml:"httpAddr"` // e.g. ":8080"
}

// StorageConfig holds the on-disk directories used by the ingestion pipeline.
type StorageConfig struct {
	StagingDir string `yaml:"stagingDir"` // ephemeral, cleared on every upload batch
	ArchiveDir string `yaml:"archiveDir"` // append-only, holds processed PDFs
}

// MilvusConfig holds the Milvus connection and collection settings.
type MilvusConfig struct {
	Address        string `yaml:"address"`
	CollectionName string `yaml:"collectionName"`
	VectorField    string `yaml:"vectorField"`
	MetricType     string `yaml:"metricType"` // "COSINE", "IP" or "L2"
	Dim            int    `yaml:"dim"`
}

// RedisConfig holds the Redis connection settings for the chat history store.
type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// ModelConfig identifies a single provider-hosted model.
type ModelConfig struct {
	Provider string `yaml:"provider"` // "openai", "gemini" or "ollama"
	Name     string `yaml:"name"`
	APIKey   string `yaml:"apiKey"`
	BaseURL  string `yaml:"baseURL,omitempty"`
}

// RetrievalConfig holds the query-time retrieval defaults.
type RetrievalConfig struct {
	TopK        int     `yaml:"topK"`        // chunks fed to the answer prompt
	FetchK      int     `yaml:"fetchK"`      // candidate pool for MMR re-selection
	MMRLambda   float64 `yaml:"mmrLambda"`   // relevance/diversity trade-off
	SourceCount int     `yaml:"sourceCount"` // contexts shown in the citation block
}

// DatabasesConfig groups the external store connections.
type DatabasesConfig struct {
	// VectorBackend selects the vector index implementation: "milvus"
	// (default) or "memory" for local runs without a Milvus instance.
	VectorBackend string       `yaml:"vectorBackend"`
	Milvus        MilvusConfig `yaml:"milvus"`
	Redis         RedisConfig  `yaml:"redis"`
}

// AppConfig is the root configuration for the service.
type AppConfig struct {
	Server    ServerConfig    `yaml:"server"`
	Storage   StorageConfig   `yaml:"storage"`
	Databases DatabasesConfig `yaml:"databases"`
	Embedding ModelConfig     `yaml:"embedding"`
	LLM       ModelConfig     `yaml:"llm"`
	Retrieval RetrievalConfig `yaml:"retrieval"`
}

// LoadConfig reads and parses the YAML configuration file at path.
// API keys left empty in the file are resolved from the environment
// (OPENAI_API_KEY / GEMINI_API_KEY).
func LoadConfig(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	cfg.applyDefaults()
	cfg.resolveSecrets()

	return &cfg, nil
}

func (c *AppConfig) applyDefaults() {
	if c.Server.HTTPAddr == "" {
		c.Server.HTTPAddr = ":8080"
	}
	if c.Storage.StagingDir == "" {
		c.Storage.StagingDir = "uploaded_pdfs"
	}
	if c.Storage.ArchiveDir == "" {
		c.Storage.ArchiveDir = "pdf_database"
	}
	if c.Retrieval.TopK <= 0 {
		c.Retrieval.TopK = 4
	}
	if c.Retrieval.FetchK <= 0 {
		c.Retrieval.FetchK = 20
	}
	if c.Retrieval.MMRLambda <= 0 {
		c.Retrieval.MMRLambda = 0.5
	}
	if c.Retrieval.SourceCount <= 0 {
		c.Retrieval.SourceCount = 3
	}
	if c.Databases.VectorBackend == "" {
		c.Databases.VectorBackend = "milvus"
	}
	if c.Databases.Milvus.VectorField == "" {
		c.Databases.Milvus.VectorField = "embedding"
	}
	if c.Databases.Milvus.MetricType == "" {
		c.Databases.Milvus.MetricType = "COSINE"
	}
}

func (c *AppConfig) resolveSecrets() {
	if c.Embedding.APIKey == "" {
		c.Embedding.APIKey = keyFromEnv(c.Embedding.Provider)
	}
	if c.LLM.APIKey == "" {
		c.LLM.APIKey = keyFromEnv(c.LLM.Provider)
	}
}

func keyFromEnv(provider string) string {
	switch provider {
	case "openai":
		return os.Getenv("OPENAI_API_KEY")
	case "gemini":
		return os.Getenv("GEMINI_API_KEY")
	default:
		return ""
	}
}
