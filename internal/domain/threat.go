package domain

import "time"

// IndicatorType identifies which independent check produced an indicator.
type IndicatorType string

const (
	IndicatorPhishing         IndicatorType = "phishing"
	IndicatorSuspiciousDomain IndicatorType = "suspicious_domain"
	IndicatorSuspiciousURL    IndicatorType = "suspicious_url"
	IndicatorTyposquatting    IndicatorType = "typosquatting"
	IndicatorSpoofing         IndicatorType = "spoofing"
)

// Severity of a single indicator.
type Severity string

const (
	SeverityLow      Severity = "LOW"
	SeverityMedium   Severity = "MEDIUM"
	SeverityHigh     Severity = "HIGH"
	SeverityCritical Severity = "CRITICAL"
)

// ThreatLevel is the discrete level derived from the clamped threat score.
type ThreatLevel string

const (
	ThreatLevelSafe     ThreatLevel = "SAFE"
	ThreatLevelCaution  ThreatLevel = "CAUTION"
	ThreatLevelWarning  ThreatLevel = "WARNING"
	ThreatLevelCritical ThreatLevel = "CRITICAL"
)

// ThreatIndicator is one piece of evidence contributing to a message's risk
// assessment.
type ThreatIndicator struct {
	Type        IndicatorType `json:"type"`
	Severity    Severity      `json:"severity"`
	Description string        `json:"description"`
	Evidence    string        `json:"evidence"`
}

// ThreatAnalysis is the immutable result of one scoring pass over a message.
type ThreatAnalysis struct {
	MessageID      string            `json:"message_id"`
	ThreatScore    float64           `json:"threat_score"`
	ThreatLevel    ThreatLevel       `json:"threat_level"`
	Indicators     []ThreatIndicator `json:"indicators"`
	Recommendation string            `json:"recommendation"`
	Timestamp      time.Time         `json:"timestamp"`
}
