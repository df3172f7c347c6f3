package workflow

import (
	"strings"

	"github.com/mailsage/mailsage-backend/internal/domain"
)

// EnhanceQuery rewrites the search query to bias retrieval toward the topic
// the user is asking about. Analytical and sender-focused intents keep the
// original wording since their queries are already specific.
func EnhanceQuery(query string, intent domain.Intent) string {
	lowered := strings.ToLower(query)

	switch {
	case containsAny(lowered, "critical", "urgent", "important"):
		return query + " urgent asap important priority"
	case containsAny(lowered, "security", "vulnerability", "vulnerable"):
		return query + " CVE critical vulnerability patch security alert threat"
	case containsAny(lowered, "bug", "issue", "error"):
		return query + " fix bug error authentication failure"
	}

	switch intent {
	case domain.IntentAnalysis, domain.IntentSummarization, domain.IntentSenderAnalysis:
		return query
	}
	return query
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
