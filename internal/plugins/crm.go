package plugins

import (
	"context"
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/contactdesk/contactdesk/internal/schema"
)

var accountSections = []string{"services", "billing", "history", "preferences", "contacts"}

// CRM looks up and records customer relationships.
type CRM struct {
	now func() time.Time
}

func NewCRM(d Deps) *CRM { return &CRM{now: d.Now} }

func (*CRM) Name() string { return "CRM" }
func (*CRM) Description() string {
	return "Customer Relationship Management system for account information, interaction tracking, and customer lifecycle management"
}

func (c *CRM) Operations() []schema.Operation {
	return []schema.Operation{
		{
			Name:        "GetAccount",
			Description: "Retrieves comprehensive customer account information including services, billing status, contact details, and service history. Essential for personalized service.",
			Params: []schema.Param{
				obj("lookup", "Lookup criteria object (e.g., {email: 'user@example.com'} or {phone: '+43123456789'} or {accountId: 'acct_001'})"),
				optional(strList("include", "Array of information sections to include: ['services', 'billing', 'history', 'preferences', 'contacts']")),
			},
			Invoke: c.getAccount,
		},
		{
			Name:        "LogInteraction",
			Description: "Records customer interaction details in CRM for tracking service quality, sales opportunities, and follow-up requirements. Essential for customer journey management.",
			Params: []schema.Param{
				optional(str("accountId", "Customer account ID if existing customer, null for prospects")),
				str("intent", "Interaction intent: 'sales_inquiry', 'technical_support', 'billing_question', 'order_status', 'complaint'"),
				str("transcriptRef", "Reference to conversation transcript or interaction record"),
			},
			Invoke: c.logInteraction,
		},
		{
			Name:        "CreateProspect",
			Description: "Creates new prospect record for potential customers showing interest but not yet converted. Initiates sales pipeline tracking.",
			Params: []schema.Param{
				obj("contactInfo", "Contact information object with fields like name, email, phone, address"),
				str("source", "Lead source: 'website', 'ai_assistant', 'referral', 'advertising', 'walk_in'"),
			},
			Invoke: c.createProspect,
		},
		{
			Name:        "UpdateCustomer",
			Description: "Updates existing customer record with new information such as contact details, preferences, or service interests.",
			Params: []schema.Param{
				str("customerId", "Customer ID to update"),
				obj("updateData", "Update data object containing fields to modify"),
			},
			Invoke: c.updateCustomer,
		},
	}
}

func (c *CRM) getAccount(_ context.Context, args schema.Args) (any, error) {
	lookup := args.Object("lookup")
	if len(lookup) == 0 {
		return nil, errors.New("lookup needs at least one of email, phone or accountId")
	}
	include := args.Strings("include")
	if len(include) == 0 {
		include = accountSections
	}

	account := map[string]any{
		"accountId": "acct_001",
		"balance":   amount("49.90"),
		"currency":  currency,
		"status":    "active",
		"tier":      "premium",
		"customerInfo": map[string]any{
			"name":    "John Doe",
			"email":   "user@example.com",
			"phone":   "+43 1 234 5678",
			"address": "Rennweg 22, 1030 Wien",
		},
	}
	if slices.Contains(include, "services") {
		account["services"] = []string{"FTTH", "5G Mobile"}
	}
	if slices.Contains(include, "history") {
		account["accountSummary"] = map[string]any{
			"memberSince":    "2023-01-15",
			"totalSpent":     amount("1247.50"),
			"supportTickets": 3,
			"satisfaction":   4.8,
		}
	}
	return account, nil
}

func (c *CRM) logInteraction(_ context.Context, args schema.Args) (any, error) {
	intent := args.String("intent")
	accountID := args.String("accountId")
	if accountID == "" {
		accountID = newID("prospect")
	}
	sales := strings.Contains(intent, "sales")
	nextAction := "none"
	if sales {
		nextAction = "sales_follow_up"
	}
	return map[string]any{
		"interactionId":    newID("int"),
		"accountId":        accountID,
		"intent":           intent,
		"transcriptRef":    args.String("transcriptRef"),
		"timestamp":        c.now(),
		"channel":          "ai_assistant",
		"status":           "logged",
		"followUpRequired": sales || strings.Contains(intent, "order"),
		"nextAction":       nextAction,
	}, nil
}

func (c *CRM) createProspect(_ context.Context, args schema.Args) (any, error) {
	contact := args.Object("contactInfo")
	if contact["email"] == nil && contact["phone"] == nil {
		return nil, errors.New("contactInfo needs an email or a phone number")
	}
	now := c.now()
	return map[string]any{
		"prospectId":    newID("pros"),
		"status":        "new_lead",
		"source":        args.String("source"),
		"createdAt":     now,
		"assignedTo":    "sales_team",
		"priority":      "high",
		"expectedValue": Amount{amount("59.90").Mul(decimal.NewFromInt(12))}, // 12 months of the family plan
		"followUpDate":  now.AddDate(0, 0, 1),
	}, nil
}

func (c *CRM) updateCustomer(_ context.Context, args schema.Args) (any, error) {
	update := args.Object("updateData")
	if len(update) == 0 {
		return nil, errors.New("updateData is empty")
	}
	changes := make([]string, 0, len(update))
	for field := range update {
		changes = append(changes, field)
	}
	slices.Sort(changes)
	return map[string]any{
		"customerId":   args.String("customerId"),
		"status":       "updated",
		"lastModified": c.now(),
		"changes":      changes,
		"auditTrail":   "Changes logged for compliance",
	}, nil
}
