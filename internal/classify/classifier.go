package classify

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/mailsage/mailsage-backend/internal/domain"
)

var hashtagRegex = regexp.MustCompile(`#(\w+)`)

type categoryRule struct {
	name     string
	keywords []string
}

// Rule order is fixed so category output is deterministic.
var categoryRules = []categoryRule{
	{"work", []string{"meeting", "project", "deadline", "task", "report", "presentation", "team", "client"}},
	{"urgent", []string{"urgent", "asap", "immediately", "critical", "emergency", "important", "priority"}},
	{"financial", []string{"invoice", "payment", "bill", "receipt", "transaction", "cost", "budget", "expense"}},
	{"security", []string{"security", "vulnerability", "breach", "alert", "warning", "threat", "patch", "update"}},
	{"social", []string{"invitation", "event", "party", "celebration", "gathering", "meetup"}},
	{"notification", []string{"notification", "alert", "reminder", "update", "status", "confirmation"}},
	{"newsletter", []string{"newsletter", "digest", "weekly", "monthly", "subscription", "unsubscribe"}},
	{"personal", []string{"personal", "private", "family", "friend", "vacation", "holiday"}},
}

var (
	highPriorityKeywords   = []string{"urgent", "asap", "critical", "emergency", "immediately", "deadline"}
	mediumPriorityKeywords = []string{"important", "soon", "priority", "attention", "review"}
	lowPriorityKeywords    = []string{"fyi", "info", "update", "newsletter", "digest"}

	positiveWords = []string{"thank", "great", "excellent", "good", "happy", "pleased", "wonderful", "appreciate"}
	negativeWords = []string{"issue", "problem", "error", "fail", "wrong", "bad", "concern", "unfortunately"}
)

// Classifier assigns categories, tags, priority and sentiment to messages
// with keyword rules. Stateless and deterministic.
type Classifier struct{}

func NewClassifier() *Classifier {
	return &Classifier{}
}

func (c *Classifier) Classify(msg domain.Message) domain.Classification {
	text := strings.ToLower(msg.Subject + " " + msg.Body)

	return domain.Classification{
		MessageID:  msg.ID,
		Categories: detectCategories(text),
		Tags:       extractTags(text, msg.Subject+" "+msg.Body),
		Priority:   calculatePriority(text, msg.Subject),
		Sentiment:  detectSentiment(text),
		IsReply:    isReply(msg.Subject),
		IsForward:  isForward(msg.Subject),
		WordCount:  len(strings.Fields(msg.Body)),
	}
}

func (c *Classifier) ClassifyAll(msgs []domain.Message) []domain.Classification {
	out := make([]domain.Classification, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, c.Classify(m))
	}
	return out
}

func detectCategories(text string) []string {
	var detected []string
	for _, rule := range categoryRules {
		for _, kw := range rule.keywords {
			if strings.Contains(text, kw) {
				detected = append(detected, rule.name)
				break
			}
		}
	}
	if len(detected) == 0 {
		return []string{"general"}
	}
	return detected
}

// extractTags collects hashtags plus title-case words longer than three
// characters, first-seen order, capped at ten.
func extractTags(lowered, original string) []string {
	var tags []string
	seen := make(map[string]struct{})
	add := func(tag string) {
		if tag == "" || len(tags) >= 10 {
			return
		}
		if _, dup := seen[tag]; dup {
			return
		}
		seen[tag] = struct{}{}
		tags = append(tags, tag)
	}

	for _, m := range hashtagRegex.FindAllStringSubmatch(lowered, -1) {
		add(m[1])
	}
	for _, word := range strings.Fields(original) {
		trimmed := strings.TrimFunc(word, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		})
		if len(trimmed) > 3 && isTitleCase(trimmed) {
			add(strings.ToLower(trimmed))
		}
	}
	return tags
}

func isTitleCase(word string) bool {
	runes := []rune(word)
	if !unicode.IsUpper(runes[0]) {
		return false
	}
	for _, r := range runes[1:] {
		if unicode.IsUpper(r) {
			return false
		}
	}
	return true
}

func calculatePriority(text, subject string) string {
	score := 0
	for _, kw := range highPriorityKeywords {
		if strings.Contains(text, kw) {
			score += 3
		}
	}
	for _, kw := range mediumPriorityKeywords {
		if strings.Contains(text, kw) {
			score += 2
		}
	}
	for _, kw := range lowPriorityKeywords {
		if strings.Contains(text, kw) {
			score--
		}
	}
	if isAllUpper(subject) && len(subject) > 5 {
		score += 2
	}
	if strings.Count(text, "!") >= 2 {
		score++
	}

	switch {
	case score >= 5:
		return domain.PriorityHigh
	case score >= 2:
		return domain.PriorityMedium
	default:
		return domain.PriorityLow
	}
}

func isAllUpper(s string) bool {
	hasLetter := false
	for _, r := range s {
		if unicode.IsLetter(r) {
			hasLetter = true
			if !unicode.IsUpper(r) {
				return false
			}
		}
	}
	return hasLetter
}

func detectSentiment(text string) string {
	positive := 0
	for _, w := range positiveWords {
		if strings.Contains(text, w) {
			positive++
		}
	}
	negative := 0
	for _, w := range negativeWords {
		if strings.Contains(text, w) {
			negative++
		}
	}
	switch {
	case positive > negative:
		return domain.SentimentPositive
	case negative > positive:
		return domain.SentimentNegative
	default:
		return domain.SentimentNeutral
	}
}

func isReply(subject string) bool {
	return strings.HasPrefix(strings.ToLower(subject), "re:")
}

func isForward(subject string) bool {
	lower := strings.ToLower(subject)
	return strings.HasPrefix(lower, "fwd:") || strings.HasPrefix(lower, "fw:")
}
