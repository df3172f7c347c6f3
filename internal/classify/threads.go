package classify

import (
	"fmt"
	"sort"
	"strings"

	"github.com/mailsage/mailsage-backend/internal/domain"
)

// ThreadDetector groups messages into conversation threads by normalized
// subject line.
type ThreadDetector struct{}

func NewThreadDetector() *ThreadDetector {
	return &ThreadDetector{}
}

// DetectThreads returns threads in creation order plus a message-to-thread
// mapping. Messages are processed in date order so start/last dates come out
// right even for unsorted input.
func (t *ThreadDetector) DetectThreads(msgs []domain.Message) ([]domain.Thread, map[string]string) {
	ordered := make([]domain.Message, len(msgs))
	copy(ordered, msgs)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Date < ordered[j].Date
	})

	var threads []domain.Thread
	bySubject := make(map[string]int)
	messageToThread := make(map[string]string)

	for _, msg := range ordered {
		subject := NormalizeSubject(msg.Subject)

		idx, ok := bySubject[subject]
		if !ok {
			idx = len(threads)
			bySubject[subject] = idx
			threads = append(threads, domain.Thread{
				ID:        fmt.Sprintf("thread_%d", idx+1),
				Subject:   subject,
				StartDate: msg.Date,
			})
		}

		th := &threads[idx]
		th.MessageIDs = append(th.MessageIDs, msg.ID)
		th.Participants = addParticipant(th.Participants, msg.Sender)
		for _, r := range msg.Recipients {
			th.Participants = addParticipant(th.Participants, r)
		}
		th.LastDate = msg.Date
		messageToThread[msg.ID] = th.ID
	}

	return threads, messageToThread
}

// NormalizeSubject strips reply/forward prefixes, repeatedly, so "Re: Fwd: x"
// and "x" land in the same thread.
func NormalizeSubject(subject string) string {
	normalized := strings.TrimSpace(subject)
	prefixes := []string{"re:", "fwd:", "fw:", "re[", "fwd["}
	for {
		lower := strings.ToLower(normalized)
		stripped := false
		for _, prefix := range prefixes {
			if strings.HasPrefix(lower, prefix) {
				normalized = strings.TrimSpace(normalized[len(prefix):])
				stripped = true
				break
			}
		}
		if !stripped {
			return normalized
		}
	}
}

func addParticipant(participants []string, addr string) []string {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return participants
	}
	for _, p := range participants {
		if p == addr {
			return participants
		}
	}
	return append(participants, addr)
}
