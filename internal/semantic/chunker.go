package semantic

import "strings"

const (
	DefaultChunkSize    = 500
	DefaultChunkOverlap = 50
)

// Chunk splits text into overlapping windows of at most size runes with
// overlap runes shared between consecutive chunks. When a window does not
// end the text, the break point moves back to the last '.' or '\n' inside
// the window, but only if that lands past the window midpoint. Chunks are
// trimmed and empty ones dropped. Text that fits in one window is returned
// unchanged.
func Chunk(text string, size, overlap int) []string {
	if size <= 0 {
		size = DefaultChunkSize
	}
	if overlap < 0 {
		overlap = DefaultChunkOverlap
	}
	if overlap >= size {
		overlap = size - 1
	}

	runes := []rune(text)
	if len(runes) <= size {
		return []string{text}
	}

	var chunks []string
	start := 0
	for start < len(runes) {
		// end deliberately overshoots on the final window; the stride is
		// computed from it, which is what terminates the loop.
		end := start + size
		sliceEnd := end
		if sliceEnd > len(runes) {
			sliceEnd = len(runes)
		}
		window := runes[start:sliceEnd]

		if end < len(runes) {
			breakPoint := lastBreak(window)
			if breakPoint > size/2 {
				window = window[:breakPoint+1]
				end = start + breakPoint + 1
			}
		}

		if chunk := strings.TrimSpace(string(window)); chunk != "" {
			chunks = append(chunks, chunk)
		}
		next := end - overlap
		if next <= start {
			// Large overlaps combined with an early break point can stall
			// the window; advance without overlap instead.
			next = end
		}
		start = next
	}
	return chunks
}

func lastBreak(window []rune) int {
	for i := len(window) - 1; i >= 0; i-- {
		if window[i] == '.' || window[i] == '\n' {
			return i
		}
	}
	return -1
}
