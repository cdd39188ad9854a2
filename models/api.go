package models

// AskRequest is the body for answer endpoints.
type AskRequest struct {
	Question string `json:"question" binding:"required"`
	TopK     int    `json:"top_k,omitempty"`
}

// AskResponse carries the synthesized answer and the passages it was
// grounded on.
type AskResponse struct {
	Answer   string        `json:"answer"`
	Passages []PassageView `json:"passages,omitempty"`
}

// PassageView is a retrieved passage as exposed over the API.
type PassageView struct {
	Text  string  `json:"text"`
	Score float64 `json:"score"`
}

// IngestRequest is the body for text ingestion endpoints.
type IngestRequest struct {
	Text     string            `json:"text" binding:"required"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// IngestResponse reports what an ingestion call did.
type IngestResponse struct {
	Chunks   int `json:"chunks"`
	Inserted int `json:"inserted"`
}

// EmbedRequest is the body for the embeddings endpoint.
type EmbedRequest struct {
	Text string `json:"text" binding:"required"`
}

// EmbedResponse returns the raw embedding for the text plus an answer
// generated against the store, with the text ingested first.
type EmbedResponse struct {
	Embeddings []float32 `json:"embeddings"`
	Chat       string    `json:"chat"`
}
