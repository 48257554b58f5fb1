package simindex

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadFile reads an index corpus from a YAML or JSON file, chosen by
// extension.
func LoadFile(path string, topK int) (*Index, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("simindex: read %s: %w", path, err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FromYAML(data, topK)
	default:
		return FromJSON(data, topK)
	}
}

// FromJSON builds an index from a JSON array of items.
func FromJSON(data []byte, topK int) (*Index, error) {
	var items []Item
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("simindex: parse json: %w", err)
	}
	return New(items, topK), nil
}

// FromYAML builds an index from a YAML list of items.
func FromYAML(data []byte, topK int) (*Index, error) {
	var items []Item
	if err := yaml.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("simindex: parse yaml: %w", err)
	}
	return New(items, topK), nil
}

// DefaultItems is a small built-in playbook corpus used when no
// external index file is configured. Weights mirror the signal
// profiles typical instances of each playbook produce.
func DefaultItems() []Item {
	return []Item{
		{
			ID: "authority-summons", Category: "voice-phishing", ExpectedRisk: "high",
			Signals: map[string]float64{
				"authority_impersonation": 10, "visit_place": 7, "urgency": 4,
				"threat_pressure": 7, "secrecy": 5,
			},
		},
		{
			ID: "otp-relay", Category: "account-takeover", ExpectedRisk: "high",
			Signals: map[string]float64{
				"otp_request": 12, "otp_relay": 12, "verify_account": 9,
				"bank_claim": 6, "urgency": 4,
			},
		},
		{
			ID: "remote-support", Category: "account-takeover", ExpectedRisk: "high",
			Signals: map[string]float64{
				"remote_app": 12, "install_app": 9, "otp_request": 12,
				"url_download_ext": 10,
			},
		},
		{
			ID: "safe-account-transfer", Category: "voice-phishing", ExpectedRisk: "high",
			Signals: map[string]float64{
				"protected_account": 10, "transfer_request": 10,
				"authority_impersonation": 10, "urgency": 4,
			},
		},
		{
			ID: "delivery-smishing", Category: "smishing", ExpectedRisk: "medium",
			Signals: map[string]float64{
				"delivery_alert": 4, "url_shortener": 8, "url_plain_http": 3,
				"pii_request": 9,
			},
		},
		{
			ID: "family-emergency", Category: "impersonation", ExpectedRisk: "high",
			Signals: map[string]float64{
				"family_impersonation": 8, "transfer_request": 10,
				"urgency": 4, "contact_move": 5,
			},
		},
		{
			ID: "job-advance-fee", Category: "job-scam", ExpectedRisk: "high",
			Signals: map[string]float64{
				"job_lure": 6, "contact_move": 5, "pii_request": 9,
				"payment_request": 7,
			},
		},
		{
			ID: "investment-room", Category: "investment-scam", ExpectedRisk: "medium",
			Signals: map[string]float64{
				"investment_lure": 7, "benefit_lure": 5, "contact_move": 5,
				"url_shortener": 8,
			},
		},
	}
}
