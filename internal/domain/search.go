package domain

// SearchResult is one retrieved chunk, carrying its parent message identity.
// Produced fresh per query; persisted only as part of an execution record.
type SearchResult struct {
	ID      string  `json:"id"`
	Sender  string  `json:"sender,omitempty"`
	Subject string  `json:"subject"`
	Date    string  `json:"date"`
	Score   float64 `json:"score"`
	Snippet string  `json:"snippet"`
}

// Citation ties a generated answer back to a passage that was actually shown
// to the generator.
type Citation struct {
	ID      string `json:"id"`
	Subject string `json:"subject"`
	Date    string `json:"date"`
	Snippet string `json:"snippet"`
}

// RAGResponse is the answer engine's return contract.
type RAGResponse struct {
	Answer    string     `json:"answer"`
	Citations []Citation `json:"citations"`
}
