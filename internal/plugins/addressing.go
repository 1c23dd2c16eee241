package plugins

import (
	"context"
	"regexp"
	"strings"

	"github.com/contactdesk/contactdesk/internal/schema"
)

var rePostalCode = regexp.MustCompile(`\b(\d{4})\b`)

var viennaDistricts = map[string]string{
	"1010": "Innere Stadt",
	"1020": "Leopoldstadt",
	"1030": "Landstraße",
	"1040": "Wieden",
	"1050": "Margareten",
	"1060": "Mariahilf",
	"1070": "Neubau",
	"1080": "Josefstadt",
	"1090": "Alsergrund",
	"1100": "Favoriten",
}

// Address validates and normalizes customer addresses.
type Address struct{}

func (Address) Name() string { return "Address" }
func (Address) Description() string {
	return "Address validation and normalization services for customer locations"
}

func (a Address) Operations() []schema.Operation {
	return []schema.Operation{{
		Name:        "Validate",
		Description: "Validates and normalizes a customer address. Returns standardized format with postal code validation.",
		Params:      []schema.Param{str("address", "Customer address to validate (e.g., '1030 Wien, Rennweg 22')")},
		Invoke:      a.validate,
	}}
}

func (Address) validate(_ context.Context, args schema.Args) (any, error) {
	raw := strings.TrimSpace(args.String("address"))
	postal := ""
	if m := rePostalCode.FindStringSubmatch(raw); m != nil {
		postal = m[1]
	}
	return map[string]any{
		"normalized": normalizeAddress(raw, postal),
		"postalCode": postal,
		"isValid":    postal != "",
		"district":   viennaDistricts[postal],
		"country":    "Austria",
	}, nil
}

// normalizeAddress moves a leading "<postal> <city>" part behind the street:
// "1030 Wien, Rennweg 22" becomes "Rennweg 22, 1030 Wien".
func normalizeAddress(raw, postal string) string {
	parts := strings.Split(raw, ",")
	for i := range parts {
		parts[i] = strings.Join(strings.Fields(parts[i]), " ")
	}
	if len(parts) == 2 && postal != "" && strings.HasPrefix(parts[0], postal) {
		return parts[1] + ", " + parts[0]
	}
	return strings.Join(parts, ", ")
}

// Serviceability reports which access technologies reach an address.
type Serviceability struct{}

func (Serviceability) Name() string { return "Serviceability" }
func (Serviceability) Description() string {
	return "Network serviceability checker to determine available telecommunications services at customer locations"
}

func (s Serviceability) Operations() []schema.Operation {
	return []schema.Operation{{
		Name:        "CheckAddress",
		Description: "Checks what telecommunications services (fiber, 5G, DSL, etc.) are available at a specific address. Essential for determining service options.",
		Params: []schema.Param{
			str("address", "Customer address to check for service availability"),
			str("postalCode", "Postal code for the address (helps with regional service mapping)"),
		},
		Invoke: s.checkAddress,
	}}
}

func (Serviceability) checkAddress(_ context.Context, args schema.Args) (any, error) {
	// Fiber rollout covers Vienna (postal codes 1xxx) only.
	if strings.HasPrefix(args.String("postalCode"), "1") {
		return map[string]any{
			"servicesAvailable":    []string{"FTTH", "5G", "LTE", "DSL"},
			"maxSpeed":             "1000 Mbps",
			"networkCoverage":      "excellent",
			"installationRequired": false,
			"estimatedActivation":  "immediate",
		}, nil
	}
	return map[string]any{
		"servicesAvailable":    []string{"LTE", "DSL"},
		"maxSpeed":             "250 Mbps",
		"networkCoverage":      "good",
		"installationRequired": true,
		"estimatedActivation":  "5-7 business days",
	}, nil
}
