package plugins

import (
	"context"
	"strings"

	"github.com/contactdesk/contactdesk/internal/schema"
)

// Humans escalates a conversation to a human agent.
type Humans struct{}

func (Humans) Name() string { return "Humans" }
func (Humans) Description() string {
	return "Human agent escalation service for complex issues that require human expertise, empathy, or specialized knowledge"
}

func (h Humans) Operations() []schema.Operation {
	return []schema.Operation{{
		Name:        "TransferToAgent",
		Description: "Transfers customer conversation to human agent when AI cannot resolve issue or customer requests human assistance. Provides queue status and estimated wait time.",
		Params: []schema.Param{
			str("reason", "Reason for transfer: 'complex_technical_issue', 'complaint', 'sales_negotiation', 'customer_request', 'billing_dispute', 'cancellation'"),
		},
		Invoke: func(_ context.Context, args schema.Args) (any, error) {
			reason := args.String("reason")
			priority, eta, position := "normal", 120, 3
			if strings.Contains(reason, "complaint") || strings.Contains(reason, "cancellation") {
				priority, eta, position = "high", 45, 1
			}
			return map[string]any{
				"status":           "queued",
				"transferId":       newID("transfer"),
				"etaSeconds":       eta,
				"queuePosition":    position,
				"reason":           reason,
				"priority":         priority,
				"agentSkills":      requiredSkills(reason),
				"customerNotified": true,
			}, nil
		},
	}}
}

func requiredSkills(reason string) []string {
	switch {
	case strings.Contains(reason, "technical"):
		return []string{"technical_support", "network_troubleshooting"}
	case strings.Contains(reason, "sales"):
		return []string{"sales", "product_knowledge"}
	case strings.Contains(reason, "billing"):
		return []string{"billing", "account_management"}
	case strings.Contains(reason, "complaint"):
		return []string{"customer_service", "conflict_resolution"}
	default:
		return []string{"general_support"}
	}
}
