package threat

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Weights are the per-check score contributions and the level thresholds.
type Weights struct {
	Keyword   float64 `yaml:"keyword"`
	Domain    float64 `yaml:"domain"`
	URL       float64 `yaml:"url"`
	Typosquat float64 `yaml:"typosquat"`
	Spoof     float64 `yaml:"spoof"`

	CautionThreshold  float64 `yaml:"caution_threshold"`
	WarningThreshold  float64 `yaml:"warning_threshold"`
	CriticalThreshold float64 `yaml:"critical_threshold"`
}

// Rules holds every table the detector matches against. All fields are
// overridable from a YAML file; empty fields fall back to the defaults.
type Rules struct {
	TrustedDomains         []string          `yaml:"trusted_domains"`
	PhishingKeywords       []string          `yaml:"phishing_keywords"`
	SuspiciousTLDs         []string          `yaml:"suspicious_tlds"`
	PhishingDomainPatterns []string          `yaml:"phishing_domain_patterns"`
	MaliciousURLPatterns   []string          `yaml:"malicious_url_patterns"`
	TypoIndicators         map[string]string `yaml:"typo_indicators"`
	TrustedNames           []string          `yaml:"trusted_names"`
	Weights                Weights           `yaml:"weights"`
}

func DefaultRules() Rules {
	return Rules{
		TrustedDomains: []string{
			"gmail.com", "outlook.com", "yahoo.com", "icloud.com", "protonmail.com",
			"ibm.com", "google.com", "microsoft.com", "apple.com", "amazon.com",
			"github.com", "linkedin.com", "slack.com", "zoom.com", "stripe.com",
		},
		PhishingKeywords: []string{
			"verify your account", "confirm your identity", "update your password",
			"unusual activity", "click here immediately", "act now", "urgent action required",
			"suspended account", "limited time", "rare opportunity", "claim reward",
			"congratulations you won", "tax refund", "nigerian prince", "wire transfer",
		},
		SuspiciousTLDs: []string{
			".tk", ".ml", ".ga", ".cf", ".info", ".biz", ".pw", ".xyz",
		},
		PhishingDomainPatterns: []string{
			`.*paypa[l1i]\..*`, `.*amazon-security.*`, `.*apple-id-verification.*`,
			`.*microsoft-account.*`, `.*gmail-verify.*`, `.*tax-refund.*`,
		},
		MaliciousURLPatterns: []string{
			`(?:https?://)?(?:bit\.ly|tinyurl|shortened|x\.co)/`,
			`(?:https?://)?[0-9]{1,3}\.[0-9]{1,3}\.[0-9]{1,3}\.[0-9]{1,3}`,
			`(?:https?://)?.*?eval.*?\.js`,
			`(?:https?://)?.*?password.*?reset`,
		},
		TypoIndicators: map[string]string{
			"gmial":    "gmail",
			"gmai.l":   "gmail",
			"redditt":  "reddit",
			"twiiter":  "twitter",
			"paypa1":   "paypal",
			"instgram": "instagram",
			"amaz0n":   "amazon",
		},
		TrustedNames: []string{
			"amazon", "apple", "microsoft", "google", "ibm", "paypal",
		},
		Weights: Weights{
			Keyword:           0.2,
			Domain:            0.3,
			URL:               0.25,
			Typosquat:         0.15,
			Spoof:             0.25,
			CautionThreshold:  0.25,
			WarningThreshold:  0.5,
			CriticalThreshold: 0.75,
		},
	}
}

// LoadRules reads a YAML rules file and overlays it on the defaults. Fields
// absent from the file keep their default values.
func LoadRules(path string) (Rules, error) {
	rules := DefaultRules()
	if path == "" {
		return rules, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return Rules{}, fmt.Errorf("read rules file: %w", err)
	}

	var override Rules
	if err := yaml.Unmarshal(raw, &override); err != nil {
		return Rules{}, fmt.Errorf("parse rules file: %w", err)
	}
	mergeRules(&rules, override)
	return rules, nil
}

func mergeRules(dst *Rules, src Rules) {
	if len(src.TrustedDomains) > 0 {
		dst.TrustedDomains = src.TrustedDomains
	}
	if len(src.PhishingKeywords) > 0 {
		dst.PhishingKeywords = src.PhishingKeywords
	}
	if len(src.SuspiciousTLDs) > 0 {
		dst.SuspiciousTLDs = src.SuspiciousTLDs
	}
	if len(src.PhishingDomainPatterns) > 0 {
		dst.PhishingDomainPatterns = src.PhishingDomainPatterns
	}
	if len(src.MaliciousURLPatterns) > 0 {
		dst.MaliciousURLPatterns = src.MaliciousURLPatterns
	}
	if len(src.TypoIndicators) > 0 {
		dst.TypoIndicators = src.TypoIndicators
	}
	if len(src.TrustedNames) > 0 {
		dst.TrustedNames = src.TrustedNames
	}
	if src.Weights != (Weights{}) {
		dst.Weights = src.Weights
	}
}
