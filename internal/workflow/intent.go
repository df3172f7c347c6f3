package workflow

import (
	"strings"

	"github.com/mailsage/mailsage-backend/internal/domain"
)

// Intent rules are checked in order; the first matching bucket wins and the
// default is a plain search.
var intentRules = []struct {
	intent   domain.Intent
	keywords []string
}{
	{domain.IntentSummarization, []string{"summarize", "summary", "overview", "what are"}},
	{domain.IntentAnalysis, []string{"count", "how many", "statistics", "analyze"}},
	{domain.IntentSenderAnalysis, []string{"who", "from", "sender"}},
	{domain.IntentTemporalSearch, []string{"when", "date", "time"}},
}

// DetectIntent classifies a query into one of the fixed workflow intents.
func DetectIntent(query string) domain.Intent {
	lowered := strings.ToLower(query)
	for _, rule := range intentRules {
		for _, kw := range rule.keywords {
			if strings.Contains(lowered, kw) {
				return rule.intent
			}
		}
	}
	return domain.IntentSearch
}
