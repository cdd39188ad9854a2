package models

// Document is a unit of text plus free-form metadata. Documents are
// produced by a loader (file read, web fetch) or by the chunker splitting
// a larger document, and are immutable once created. Documents are never
// persisted directly; only the record derived at ingestion time is.
type Document struct {
	Text     string            `json:"text"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Chunk is a bounded-size slice of a larger document. Start and End are
// byte offsets into the source text, so a chunk is always an exact
// substring of its source. Non-first chunks begin with up to the
// configured overlap carried over from the previous chunk.
type Chunk struct {
	ChunkID  string            `json:"chunk_id"`
	Text     string            `json:"text"`
	Order    int               `json:"order"`
	Start    int               `json:"start_index"`
	End      int               `json:"end_index"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// AsDocument converts a chunk back into a document for ingestion.
func (c Chunk) AsDocument() Document {
	meta := make(map[string]string, len(c.Metadata)+1)
	for k, v := range c.Metadata {
		meta[k] = v
	}
	meta["chunk_id"] = c.ChunkID
	return Document{Text: c.Text, Metadata: meta}
}
