package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// OrderProfile holds the business constants stamped on every free-of-charge order.
type OrderProfile struct {
	DocumentType              string `yaml:"document_type"`
	SalesOrganization         string `yaml:"sales_organization"`
	DistributionChannel       string `yaml:"distribution_channel"`
	OrganizationDivision      string `yaml:"organization_division"`
	Currency                  string `yaml:"currency"`
	DocumentReason            string `yaml:"document_reason"`
	ShippingCondition         string `yaml:"shipping_condition"`
	IncotermsClassification   string `yaml:"incoterms_classification"`
	IncotermsTransferLocation string `yaml:"incoterms_transfer_location"`
	IncotermsLocation1        string `yaml:"incoterms_location1"`
	ItemCategory              string `yaml:"item_category"`
	UnitOfMeasure             string `yaml:"unit_of_measure"`
	NetAmount                 string `yaml:"net_amount"`
	UTCOffsetMinutes          int    `yaml:"utc_offset_minutes"`
}

func DefaultProfile() OrderProfile {
	return OrderProfile{
		DocumentType:              "CBFD",
		SalesOrganization:         "2000",
		DistributionChannel:       "10",
		OrganizationDivision:      "00",
		Currency:                  "INR",
		DocumentReason:            "001",
		ShippingCondition:         "CC",
		IncotermsClassification:   "FOB",
		IncotermsTransferLocation: "KA",
		IncotermsLocation1:        "KA",
		ItemCategory:              "CBXN",
		UnitOfMeasure:             "EA",
		NetAmount:                 "0",
		UTCOffsetMinutes:          330,
	}
}

// LoadProfile reads a YAML profile on top of DefaultProfile. An empty path yields the defaults.
func LoadProfile(path string) (OrderProfile, error) {
	profile := DefaultProfile()
	if strings.TrimSpace(path) == "" {
		return profile, nil
	}

	blob, err := os.ReadFile(path)
	if err != nil {
		return OrderProfile{}, fmt.Errorf("read order profile: %w", err)
	}
	if err := yaml.Unmarshal(blob, &profile); err != nil {
		return OrderProfile{}, fmt.Errorf("parse order profile %s: %w", path, err)
	}
	if err := profile.Validate(); err != nil {
		return OrderProfile{}, fmt.Errorf("order profile %s: %w", path, err)
	}
	return profile, nil
}

func (p OrderProfile) Validate() error {
	fields := []struct {
		name  string
		value string
	}{
		{"document_type", p.DocumentType},
		{"sales_organization", p.SalesOrganization},
		{"distribution_channel", p.DistributionChannel},
		{"organization_division", p.OrganizationDivision},
		{"currency", p.Currency},
		{"item_category", p.ItemCategory},
		{"unit_of_measure", p.UnitOfMeasure},
		{"net_amount", p.NetAmount},
	}
	var missing []string
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("empty fields: %s", strings.Join(missing, ", "))
	}
	if p.UTCOffsetMinutes < -14*60 || p.UTCOffsetMinutes > 14*60 {
		return fmt.Errorf("utc_offset_minutes out of range: %d", p.UTCOffsetMinutes)
	}
	return nil
}

// Location is the fixed civil zone used to decide what "today" is for order dates.
func (p OrderProfile) Location() *time.Location {
	offset := p.UTCOffsetMinutes
	sign := "+"
	if offset < 0 {
		sign = "-"
		offset = -offset
	}
	name := fmt.Sprintf("UTC%s%02d:%02d", sign, offset/60, offset%60)
	return time.FixedZone(name, p.UTCOffsetMinutes*60)
}
