package schema

const (
	// MetadataKeySource is the key for the canonical source file name a
	// chunk was extracted from. The recency reranker parses the document
	// date out of this value.
	MetadataKeySource = "source"
	// MetadataKeyPageLabel is the key for the page number the chunk came from.
	MetadataKeyPageLabel = "page_label"
)

// Document is the central data structure representing a piece of text and its
// associated data. It is the primary data carrier throughout the RAG pipeline.
type Document struct {
	// ID is the unique identifier for this document chunk.
	ID string

	// Text is the string content of the document chunk.
	Text string

	// Embedding is the vector representation of the text.
	Embedding []float32

	// Metadata holds arbitrary data about the document, such as source
	// file name and page label.
	Metadata map[string]interface{}
}

// Source returns the source file name from the document metadata, or the
// empty string when it is absent.
func (d *Document) Source() string {
	if d.Metadata == nil {
		return ""
	}
	s, _ := d.Metadata[MetadataKeySource].(string)
	return s
}

// ScoredDocument pairs a document with its similarity score. Score is always
// higher-is-more-similar; the vector store adapter is responsible for
// converting distance metrics into this convention. WeightedScore is filled
// in by the recency reranker.
type ScoredDocument struct {
	Document      *Document
	Score         float64
	WeightedScore float64
}

// RetrievalFilters selects the retrieval strategy for a single query.
// Rerank takes precedence over ProcessChain; when neither is set the plain
// strategy applies. MMR only affects the non-rerank strategies.
type RetrievalFilters struct {
	MMR           bool    `json:"mmr"`
	ProcessChain  bool    `json:"processChain"`
	Rerank        bool    `json:"rerank"`
	RecencyWeight float64 `json:"recencyWeight"` // in [0,1], only used when Rerank is set
}

// Answer is the final response pair returned to the caller: the generated
// answer text and a human-readable citation block.
type Answer struct {
	Text    string `json:"answer"`
	Sources string `json:"sources"`
}
