package domain

import "fmt"

// ChunkMetadata travels with every vector so search results can be mapped
// back to the owning message without a second lookup.
type ChunkMetadata struct {
	MessageID   string `json:"message_id"`
	Sender      string `json:"from"`
	Subject     string `json:"subject"`
	Date        string `json:"date"`
	ChunkIndex  int    `json:"chunk_index"`
	TotalChunks int    `json:"total_chunks"`
}

// Chunk is a bounded substring of one message's normalized text, the unit of
// embedding and retrieval. Chunks are regenerated whenever the message is
// re-indexed; they never mutate independently.
type Chunk struct {
	ID       string        `json:"chunk_id"`
	Text     string        `json:"text"`
	Metadata ChunkMetadata `json:"metadata"`
}

// ChunkID derives the stable vector id for a message chunk.
func ChunkID(messageID string, index int) string {
	return fmt.Sprintf("%s_%d", messageID, index)
}
