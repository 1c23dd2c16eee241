package plugins

import (
	"context"

	"github.com/contactdesk/contactdesk/internal/schema"
)

// Device runs remote diagnostics on customer equipment.
type Device struct{}

func (Device) Name() string        { return "Device" }
func (Device) Description() string { return "Remote diagnostics for customer devices and lines" }

func (Device) Operations() []schema.Operation {
	return []schema.Operation{{
		Name:        "RunDiagnostics",
		Description: "Runs remote diagnostics for a service and reports the line or device condition",
		Params:      []schema.Param{str("serviceId", "Service or line identifier to diagnose")},
		Invoke: func(_ context.Context, args schema.Args) (any, error) {
			return map[string]any{
				"serviceId":      args.String("serviceId"),
				"status":         "weak_signal",
				"signalDbm":      -109,
				"recommendation": "Move the router closer to a window or book a technician visit",
			}, nil
		},
	}}
}

// Network reports coverage and outages.
type Network struct{}

func (Network) Name() string        { return "Network" }
func (Network) Description() string { return "Network coverage and outage information" }

func (Network) Operations() []schema.Operation {
	return []schema.Operation{{
		Name:        "CheckCoverageOrOutage",
		Description: "Checks network coverage and known outages at an address",
		Params: []schema.Param{
			str("address", "Customer address"),
			str("postalCode", "Postal code of the address"),
		},
		Invoke: func(_ context.Context, args schema.Args) (any, error) {
			return map[string]any{
				"postalCode": args.String("postalCode"),
				"outage":     false,
				"coverage":   map[string]string{"5G": "good", "LTE": "excellent"},
			}, nil
		},
	}}
}
