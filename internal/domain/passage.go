package domain

// RetrievedPassage is one knowledge-base hit.
type RetrievedPassage struct {
	DocumentID string  `json:"document_id"`
	Title      string  `json:"title,omitempty"`
	Text       string  `json:"text"`
	Score      float64 `json:"score"`
}

// Resolution is the answer synthesized by the RAG stage.
type Resolution struct {
	Answer     string
	Citations  []string
	Ungrounded bool
	Passages   []RetrievedPassage
}
