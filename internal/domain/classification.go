package domain

// Priority buckets produced by the rule-based classifier.
const (
	PriorityHigh   = "high"
	PriorityMedium = "medium"
	PriorityLow    = "low"
)

// Sentiment buckets.
const (
	SentimentPositive = "positive"
	SentimentNegative = "negative"
	SentimentNeutral  = "neutral"
)

// Classification is the deterministic per-message tagging output.
type Classification struct {
	MessageID  string   `json:"id"`
	Categories []string `json:"categories"`
	Tags       []string `json:"tags,omitempty"`
	Priority   string   `json:"priority"`
	Sentiment  string   `json:"sentiment"`
	IsReply    bool     `json:"is_reply"`
	IsForward  bool     `json:"is_forward"`
	WordCount  int      `json:"word_count"`
}

// Thread groups messages that share a normalized subject line.
type Thread struct {
	ID           string   `json:"thread_id"`
	Subject      string   `json:"subject"`
	MessageIDs   []string `json:"message_ids"`
	Participants []string `json:"participants"`
	StartDate    string   `json:"start_date"`
	LastDate     string   `json:"last_date"`
}
