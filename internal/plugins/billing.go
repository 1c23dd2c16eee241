package plugins

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/contactdesk/contactdesk/internal/schema"
)

var paymentMethods = map[string]bool{
	"credit_card":   true,
	"bank_transfer": true,
	"auto_debit":    true,
	"paypal":        true,
}

type invoiceItem struct {
	Description string `json:"description"`
	Amount      Amount `json:"amount"`
	Category    string `json:"category"`
}

type invoice struct {
	Total         Amount        `json:"total"`
	Currency      string        `json:"currency"`
	BillingPeriod string        `json:"billingPeriod"`
	Status        string        `json:"status"`
	Items         []invoiceItem `json:"items"`
	PaymentMethod string        `json:"paymentMethod"`
	DueDate       string        `json:"dueDate"`
}

// Billing serves invoices and schedules payments.
type Billing struct{}

func (Billing) Name() string { return "Billing" }
func (Billing) Description() string {
	return "Billing and invoice management system for customer account charges, payments, and financial transactions"
}

func (b Billing) Operations() []schema.Operation {
	return []schema.Operation{
		{
			Name:        "GetInvoices",
			Description: "Retrieves customer invoices and billing details for a specific account and billing period. Shows itemized charges and total amounts.",
			Params: []schema.Param{
				str("accountId", "Customer account identifier to retrieve invoices for"),
				str("month", "Billing month in format 'YYYY-MM' (e.g., '2025-08')"),
			},
			Invoke: b.getInvoices,
		},
		{
			Name:        "SetPaymentIntent",
			Description: "Sets up a payment intent for processing customer payments. Handles different payment methods and scheduling.",
			Params: []schema.Param{
				str("accountId", "Customer account ID for payment processing"),
				num("amount", "Payment amount in account currency"),
				str("method", "Payment method: 'credit_card', 'bank_transfer', 'auto_debit', 'paypal'"),
				str("dueDate", "Payment due date in ISO format (YYYY-MM-DD)"),
			},
			Invoke: b.setPaymentIntent,
		},
	}
}

func (Billing) getInvoices(_ context.Context, args schema.Args) (any, error) {
	month := args.String("month")
	period, err := time.Parse("2006-01", month)
	if err != nil {
		return nil, fmt.Errorf("month must be YYYY-MM, got %q", month)
	}
	items := []invoiceItem{
		{Description: "Base Plan", Amount: amount("49.90"), Category: "monthly_fee"},
		{Description: "Roaming", Amount: amount("40.00"), Category: "usage_charges"},
	}
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.Amount.Decimal)
	}
	return invoice{
		Total:         Amount{total},
		Currency:      currency,
		BillingPeriod: month,
		Status:        "paid",
		Items:         items,
		PaymentMethod: "auto_debit",
		DueDate:       period.AddDate(0, 0, 14).Format(time.DateOnly),
	}, nil
}

func (Billing) setPaymentIntent(_ context.Context, args schema.Args) (any, error) {
	raw, _ := args.Float("amount")
	value := decimal.NewFromFloat(raw).Round(2)
	if !value.IsPositive() {
		return nil, errors.New("amount must be greater than zero")
	}
	method := strings.ToLower(args.String("method"))
	if !paymentMethods[method] {
		return nil, fmt.Errorf("unsupported payment method %q", method)
	}
	due := args.String("dueDate")
	if _, err := time.Parse(time.DateOnly, due); err != nil {
		return nil, fmt.Errorf("dueDate must be YYYY-MM-DD, got %q", due)
	}
	return map[string]any{
		"status":           "scheduled",
		"paymentId":        newID("pay"),
		"accountId":        args.String("accountId"),
		"amount":           Amount{value},
		"currency":         currency,
		"scheduledDate":    due,
		"method":           method,
		"confirmationSent": true,
	}, nil
}

// Usage reports consumption per service.
type Usage struct{}

func (Usage) Name() string { return "Usage" }
func (Usage) Description() string {
	return "Usage analytics and consumption tracking for voice, data, SMS, and roaming services across customer accounts"
}

func (u Usage) Operations() []schema.Operation {
	return []schema.Operation{{
		Name:        "GetBreakdown",
		Description: "Provides detailed breakdown of customer usage across all services including data consumption, voice minutes, SMS, and roaming charges for billing period.",
		Params: []schema.Param{
			str("accountId", "Customer account identifier to analyze usage for"),
			str("period", "Usage period in format 'YYYY-MM' or 'current' for current month"),
		},
		Invoke: func(_ context.Context, args schema.Args) (any, error) {
			costs := map[string]Amount{
				"data":    amount("25.50"),
				"roaming": amount("15.75"),
				"voice":   amount("8.90"),
				"sms":     amount("3.40"),
			}
			total := decimal.Zero
			for _, c := range costs {
				total = total.Add(c.Decimal)
			}
			return map[string]any{
				"accountId":     args.String("accountId"),
				"period":        args.String("period"),
				"dataGB":        12.5,
				"roamingGB":     3.0,
				"voiceMinutes":  450,
				"smsCount":      89,
				"costBreakdown": costs,
				"totalCost":     Amount{total},
				"currency":      currency,
				"allowances": map[string]any{
					"dataRemaining":  "unlimited",
					"voiceRemaining": 550,
					"smsRemaining":   211,
				},
			}, nil
		},
	}}
}
