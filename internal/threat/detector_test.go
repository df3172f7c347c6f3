package threat

import (
	"strings"
	"testing"

	"github.com/mailsage/mailsage-backend/internal/domain"
	"github.com/mailsage/mailsage-backend/internal/platform/logger"
)

func newTestDetector(t *testing.T) *Detector {
	t.Helper()
	log, err := logger.New("dev")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	d, err := NewDetector(log, DefaultRules())
	if err != nil {
		t.Fatalf("detector: %v", err)
	}
	return d
}

func TestAnalyzeScoreBounds(t *testing.T) {
	d := newTestDetector(t)
	messages := []domain.Message{
		{ID: "benign", Sender: "a@gmail.com", Subject: "lunch", Body: "see you at noon"},
		{ID: "mixed", Sender: "x@paypa1.xyz", Subject: "URGENT action required", Body: "verify your account http://bit.ly/a http://bit.ly/b http://1.2.3.4/x"},
		{ID: "empty"},
	}
	for _, msg := range messages {
		got := d.Analyze(msg)
		if got.ThreatScore < 0 || got.ThreatScore > 1 {
			t.Fatalf("%s: score out of bounds: %v", msg.ID, got.ThreatScore)
		}
	}
}

func TestLevelMonotonicInScore(t *testing.T) {
	d := newTestDetector(t)
	order := map[domain.ThreatLevel]int{
		domain.ThreatLevelSafe:     0,
		domain.ThreatLevelCaution:  1,
		domain.ThreatLevelWarning:  2,
		domain.ThreatLevelCritical: 3,
	}
	prev := -1
	for score := 0.0; score <= 1.0; score += 0.05 {
		rank := order[d.level(score)]
		if rank < prev {
			t.Fatalf("level rank decreased at score=%v", score)
		}
		prev = rank
	}
	if d.level(0.24) != domain.ThreatLevelSafe {
		t.Fatalf("level(0.24): want=SAFE got=%s", d.level(0.24))
	}
	if d.level(0.25) != domain.ThreatLevelCaution {
		t.Fatalf("level(0.25): want=CAUTION got=%s", d.level(0.25))
	}
	if d.level(0.5) != domain.ThreatLevelWarning {
		t.Fatalf("level(0.5): want=WARNING got=%s", d.level(0.5))
	}
	if d.level(0.75) != domain.ThreatLevelCritical {
		t.Fatalf("level(0.75): want=CRITICAL got=%s", d.level(0.75))
	}
}

func TestTrustedDomainSuppression(t *testing.T) {
	d := newTestDetector(t)
	got := d.Analyze(domain.Message{
		ID:      "m1",
		Sender:  "colleague@gmail.com",
		Subject: "meeting notes",
		Body:    "attached are the notes from today",
	})
	if got.ThreatLevel != domain.ThreatLevelSafe {
		t.Fatalf("level: want=SAFE got=%s", got.ThreatLevel)
	}
	if len(got.Indicators) != 0 {
		t.Fatalf("indicators: want=0 got=%d (%+v)", len(got.Indicators), got.Indicators)
	}
	if got.ThreatScore != 0 {
		t.Fatalf("score: want=0 got=%v", got.ThreatScore)
	}
}

func TestPhishingScenarioCritical(t *testing.T) {
	d := newTestDetector(t)
	got := d.Analyze(domain.Message{
		ID:      "scenario",
		Sender:  "fake@paypa1.com",
		Subject: "URGENT: Verify your account immediately",
		Body:    "Click https://bit.ly/verify-now",
	})

	if got.ThreatScore < 0.75 {
		t.Fatalf("score: want>=0.75 got=%v", got.ThreatScore)
	}
	if got.ThreatLevel != domain.ThreatLevelCritical {
		t.Fatalf("level: want=CRITICAL got=%s", got.ThreatLevel)
	}

	types := map[domain.IndicatorType]bool{}
	for _, ind := range got.Indicators {
		types[ind.Type] = true
	}
	for _, want := range []domain.IndicatorType{
		domain.IndicatorPhishing,
		domain.IndicatorSuspiciousURL,
		domain.IndicatorTyposquatting,
	} {
		if !types[want] {
			t.Fatalf("missing indicator %s in %+v", want, got.Indicators)
		}
	}
}

func TestPhishingDomainPatternMatchesDigitVariant(t *testing.T) {
	d := newTestDetector(t)
	got := d.Analyze(domain.Message{
		ID:      "m1",
		Sender:  "fake@paypa1.com",
		Subject: "invoice",
		Body:    "see attached",
	})

	var found *domain.ThreatIndicator
	for i := range got.Indicators {
		if got.Indicators[i].Type == domain.IndicatorPhishing && got.Indicators[i].Evidence == "paypa1.com" {
			found = &got.Indicators[i]
		}
	}
	if found == nil {
		t.Fatalf("missing phishing-domain indicator for paypa1.com in %+v", got.Indicators)
	}
	if found.Severity != domain.SeverityCritical {
		t.Fatalf("severity: want=CRITICAL got=%s", found.Severity)
	}
}

func TestURLCheckCountsDistinctURLs(t *testing.T) {
	d := newTestDetector(t)
	got := d.Analyze(domain.Message{
		ID:      "m1",
		Sender:  "news@gmail.com",
		Subject: "links",
		Body:    "http://bit.ly/a http://bit.ly/a http://bit.ly/b",
	})

	urlCount := 0
	for _, ind := range got.Indicators {
		if ind.Type == domain.IndicatorSuspiciousURL {
			urlCount++
		}
	}
	if urlCount != 2 {
		t.Fatalf("url indicators: want=2 got=%d", urlCount)
	}
	if got.ThreatScore != 0.5 {
		t.Fatalf("score: want=0.5 got=%v", got.ThreatScore)
	}
}

func TestSuspiciousTLD(t *testing.T) {
	d := newTestDetector(t)
	got := d.Analyze(domain.Message{
		ID:      "m1",
		Sender:  "промо@deals.xyz",
		Subject: "offer",
		Body:    "great deals inside",
	})

	found := false
	for _, ind := range got.Indicators {
		if ind.Type == domain.IndicatorSuspiciousDomain && ind.Severity == domain.SeverityMedium {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected suspicious_domain MEDIUM indicator, got %+v", got.Indicators)
	}
}

func TestSpoofingDetection(t *testing.T) {
	d := newTestDetector(t)
	got := d.Analyze(domain.Message{
		ID:      "m1",
		Sender:  "support@random-mailer.com",
		Subject: "Your Amazon order needs attention",
		Body:    "please review",
	})

	found := false
	for _, ind := range got.Indicators {
		if ind.Type == domain.IndicatorSpoofing && ind.Severity == domain.SeverityCritical {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected spoofing CRITICAL indicator, got %+v", got.Indicators)
	}
}

func TestSpoofingSkippedWhenDomainMatchesCompany(t *testing.T) {
	d := newTestDetector(t)
	got := d.Analyze(domain.Message{
		ID:      "m1",
		Sender:  "noreply@mail.amazon.com.example.org",
		Subject: "your amazon order",
		Body:    "order details",
	})
	for _, ind := range got.Indicators {
		if ind.Type == domain.IndicatorSpoofing {
			t.Fatalf("unexpected spoofing indicator: %+v", ind)
		}
	}
}

func TestKeywordEvidenceCapped(t *testing.T) {
	d := newTestDetector(t)
	got := d.Analyze(domain.Message{
		ID:      "m1",
		Sender:  "a@gmail.com",
		Subject: "act now",
		Body:    "verify your account, unusual activity, limited time, claim reward",
	})

	for _, ind := range got.Indicators {
		if ind.Type != domain.IndicatorPhishing {
			continue
		}
		if n := len(strings.Split(ind.Evidence, ", ")); n > 3 {
			t.Fatalf("evidence keywords: want<=3 got=%d (%q)", n, ind.Evidence)
		}
		return
	}
	t.Fatalf("expected phishing indicator, got %+v", got.Indicators)
}

func TestAnalyzeDeterministic(t *testing.T) {
	d := newTestDetector(t)
	msg := domain.Message{
		ID:      "m1",
		Sender:  "fake@paypa1.com",
		Subject: "URGENT: Verify your account immediately gmial paypa1",
		Body:    "Click https://bit.ly/verify-now and http://1.2.3.4/go",
	}
	first := d.Analyze(msg)
	for i := 0; i < 5; i++ {
		again := d.Analyze(msg)
		if again.ThreatScore != first.ThreatScore {
			t.Fatalf("score changed between runs: want=%v got=%v", first.ThreatScore, again.ThreatScore)
		}
		if len(again.Indicators) != len(first.Indicators) {
			t.Fatalf("indicator count changed: want=%d got=%d", len(first.Indicators), len(again.Indicators))
		}
		for j := range again.Indicators {
			if again.Indicators[j] != first.Indicators[j] {
				t.Fatalf("indicator %d changed between runs", j)
			}
		}
	}
}

func TestLoadRulesMissingFileFails(t *testing.T) {
	if _, err := LoadRules("/nonexistent/rules.yaml"); err == nil {
		t.Fatalf("want error for missing rules file")
	}
}

func TestLoadRulesEmptyPathUsesDefaults(t *testing.T) {
	rules, err := LoadRules("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(rules.PhishingKeywords) == 0 || rules.Weights.Keyword != 0.2 {
		t.Fatalf("defaults not applied: %+v", rules.Weights)
	}
}
