package threat

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/mailsage/mailsage-backend/internal/domain"
	"github.com/mailsage/mailsage-backend/internal/platform/logger"
)

var urlRegex = regexp.MustCompile(`https?://[^\s)]+`)

// Detector scores messages against a fixed set of independent indicator
// checks. Analysis is deterministic and side-effect free.
type Detector struct {
	log   *logger.Logger
	rules Rules

	trusted          map[string]struct{}
	typoKeys         []string
	maliciousURLPats []*regexp.Regexp
	phishDomainPats  []*regexp.Regexp
}

func NewDetector(log *logger.Logger, rules Rules) (*Detector, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}

	trusted := make(map[string]struct{}, len(rules.TrustedDomains))
	for _, d := range rules.TrustedDomains {
		trusted[strings.ToLower(strings.TrimSpace(d))] = struct{}{}
	}

	// Fixed iteration order keeps the first-match typo indicator stable.
	typoKeys := make([]string, 0, len(rules.TypoIndicators))
	for k := range rules.TypoIndicators {
		typoKeys = append(typoKeys, k)
	}
	sort.Strings(typoKeys)

	urlPats := make([]*regexp.Regexp, 0, len(rules.MaliciousURLPatterns))
	for _, p := range rules.MaliciousURLPatterns {
		re, err := regexp.Compile("(?i)" + p)
		if err != nil {
			return nil, fmt.Errorf("malicious url pattern %q: %w", p, err)
		}
		urlPats = append(urlPats, re)
	}
	domainPats := make([]*regexp.Regexp, 0, len(rules.PhishingDomainPatterns))
	for _, p := range rules.PhishingDomainPatterns {
		re, err := regexp.Compile("(?i)" + p)
		if err != nil {
			return nil, fmt.Errorf("phishing domain pattern %q: %w", p, err)
		}
		domainPats = append(domainPats, re)
	}

	return &Detector{
		log:              log.With("service", "ThreatDetector"),
		rules:            rules,
		trusted:          trusted,
		typoKeys:         typoKeys,
		maliciousURLPats: urlPats,
		phishDomainPats:  domainPats,
	}, nil
}

// Analyze runs every check against the message and combines the results into
// a clamped score, a level, and a recommendation. Missing fields behave as
// empty strings.
func (d *Detector) Analyze(msg domain.Message) domain.ThreatAnalysis {
	var indicators []domain.ThreatIndicator
	score := 0.0

	sender := strings.ToLower(msg.Sender)
	subject := strings.ToLower(msg.Subject)
	body := strings.ToLower(msg.Body)

	if kw := d.checkPhishingKeywords(subject + " " + body); kw != nil {
		indicators = append(indicators, *kw)
		score += d.rules.Weights.Keyword
	}
	if dom := d.checkSenderDomain(sender); dom != nil {
		indicators = append(indicators, *dom)
		score += d.rules.Weights.Domain
	}
	if urls := d.checkURLs(body); len(urls) > 0 {
		indicators = append(indicators, urls...)
		score += d.rules.Weights.URL * float64(len(urls))
	}
	if typo := d.checkTyposquatting(sender, subject); typo != nil {
		indicators = append(indicators, *typo)
		score += d.rules.Weights.Typosquat
	}
	if spoof := d.checkSpoofing(sender, subject); spoof != nil {
		indicators = append(indicators, *spoof)
		score += d.rules.Weights.Spoof
	}

	score = math.Min(score, 1.0)
	level := d.level(score)

	return domain.ThreatAnalysis{
		MessageID:      messageID(msg),
		ThreatScore:    math.Round(score*100) / 100,
		ThreatLevel:    level,
		Indicators:     indicators,
		Recommendation: recommendation(level),
		Timestamp:      time.Now().UTC(),
	}
}

// AnalyzeAll analyzes messages in order.
func (d *Detector) AnalyzeAll(msgs []domain.Message) []domain.ThreatAnalysis {
	out := make([]domain.ThreatAnalysis, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, d.Analyze(m))
	}
	return out
}

func (d *Detector) checkPhishingKeywords(text string) *domain.ThreatIndicator {
	var found []string
	for _, kw := range d.rules.PhishingKeywords {
		if strings.Contains(text, kw) {
			found = append(found, kw)
		}
	}
	if len(found) == 0 {
		return nil
	}
	evidence := found
	if len(evidence) > 3 {
		evidence = evidence[:3]
	}
	return &domain.ThreatIndicator{
		Type:        domain.IndicatorPhishing,
		Severity:    domain.SeverityHigh,
		Description: fmt.Sprintf("Found %d phishing-related keywords", len(found)),
		Evidence:    strings.Join(evidence, ", "),
	}
}

func (d *Detector) checkSenderDomain(sender string) *domain.ThreatIndicator {
	domainPart := senderDomain(sender)
	if domainPart == "" {
		return nil
	}
	if _, ok := d.trusted[domainPart]; ok {
		return nil
	}

	for _, tld := range d.rules.SuspiciousTLDs {
		if strings.HasSuffix(domainPart, tld) {
			return &domain.ThreatIndicator{
				Type:        domain.IndicatorSuspiciousDomain,
				Severity:    domain.SeverityMedium,
				Description: fmt.Sprintf("Domain uses suspicious TLD: %s", tld),
				Evidence:    domainPart,
			}
		}
	}
	for _, re := range d.phishDomainPats {
		if re.MatchString(domainPart) {
			return &domain.ThreatIndicator{
				Type:        domain.IndicatorPhishing,
				Severity:    domain.SeverityCritical,
				Description: "Sender domain matches known phishing pattern",
				Evidence:    domainPart,
			}
		}
	}
	return nil
}

func (d *Detector) checkURLs(body string) []domain.ThreatIndicator {
	var indicators []domain.ThreatIndicator
	seen := make(map[string]struct{})
	for _, url := range urlRegex.FindAllString(body, -1) {
		if _, dup := seen[url]; dup {
			continue
		}
		seen[url] = struct{}{}
		for _, re := range d.maliciousURLPats {
			if re.MatchString(url) {
				indicators = append(indicators, domain.ThreatIndicator{
					Type:        domain.IndicatorSuspiciousURL,
					Severity:    domain.SeverityHigh,
					Description: "URL matches suspicious pattern",
					Evidence:    truncateEvidence(url, 50),
				})
				break
			}
		}
	}
	return indicators
}

func (d *Detector) checkTyposquatting(sender, subject string) *domain.ThreatIndicator {
	text := sender + " " + subject
	for _, typo := range d.typoKeys {
		if strings.Contains(text, typo) {
			legitimate := d.rules.TypoIndicators[typo]
			return &domain.ThreatIndicator{
				Type:        domain.IndicatorTyposquatting,
				Severity:    domain.SeverityHigh,
				Description: fmt.Sprintf("Detected potential typosquatting: %s vs %s", typo, legitimate),
				Evidence:    typo,
			}
		}
	}
	return nil
}

func (d *Detector) checkSpoofing(sender, subject string) *domain.ThreatIndicator {
	domainPart := senderDomain(sender)
	for _, company := range d.rules.TrustedNames {
		if !strings.Contains(subject, company) && !strings.Contains(sender, company) {
			continue
		}
		if domainPart == "" || strings.Contains(domainPart, company) {
			continue
		}
		if _, trusted := d.trusted[domainPart]; trusted {
			continue
		}
		return &domain.ThreatIndicator{
			Type:        domain.IndicatorSpoofing,
			Severity:    domain.SeverityCritical,
			Description: fmt.Sprintf("Possible spoofing: mentions %s but domain is %s", company, domainPart),
			Evidence:    domainPart,
		}
	}
	return nil
}

func (d *Detector) level(score float64) domain.ThreatLevel {
	w := d.rules.Weights
	switch {
	case score >= w.CriticalThreshold:
		return domain.ThreatLevelCritical
	case score >= w.WarningThreshold:
		return domain.ThreatLevelWarning
	case score >= w.CautionThreshold:
		return domain.ThreatLevelCaution
	default:
		return domain.ThreatLevelSafe
	}
}

func recommendation(level domain.ThreatLevel) string {
	switch level {
	case domain.ThreatLevelCritical:
		return "CRITICAL: Delete immediately. This email shows multiple threat indicators."
	case domain.ThreatLevelWarning:
		return "WARNING: Exercise caution. Do not click links or download attachments."
	case domain.ThreatLevelCaution:
		return "CAUTION: Be suspicious. Verify sender before responding."
	default:
		return "SAFE: No significant threats detected."
	}
}

func senderDomain(sender string) string {
	at := strings.LastIndex(sender, "@")
	if at < 0 || at == len(sender)-1 {
		return ""
	}
	return sender[at+1:]
}

func truncateEvidence(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}

func messageID(msg domain.Message) string {
	if msg.ID != "" {
		return msg.ID
	}
	return "unknown"
}
