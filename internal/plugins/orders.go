package plugins

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/contactdesk/contactdesk/internal/schema"
)

var deliveryMethods = []string{"eSIM", "physical_sim", "pickup"}

type order struct {
	OrderID             string    `json:"orderId"`
	QuoteID             string    `json:"quoteId"`
	Status              string    `json:"status"`
	OfferID             string    `json:"offerId"`
	DeliveryMethod      string    `json:"deliveryMethod"`
	TotalAmount         Amount    `json:"totalAmount"`
	Currency            string    `json:"currency"`
	NextStep            string    `json:"nextStep"`
	RequiredDocuments   []string  `json:"requiredDocuments"`
	EstimatedActivation string    `json:"estimatedActivation"`
	CreatedAt           time.Time `json:"createdAt"`
	UpdatedAt           time.Time `json:"updatedAt"`
	Notes               []string  `json:"notes,omitempty"`
}

// Orders turns offers into orders and tracks them for the process lifetime.
type Orders struct {
	now func() time.Time

	mu     sync.RWMutex
	orders map[string]*order
}

func NewOrders(d Deps) *Orders {
	return &Orders{now: d.Now, orders: make(map[string]*order)}
}

func (*Orders) Name() string { return "Orders" }
func (*Orders) Description() string {
	return "Order management system for processing telecommunications service orders, quotes, and tracking"
}

func (o *Orders) Operations() []schema.Operation {
	return []schema.Operation{
		{
			Name:        "CreateQuoteOrOrder",
			Description: "Creates a customer order or quote from an approved offer. Handles both physical SIM and eSIM delivery options. Returns order details and next steps required.",
			Params: []schema.Param{
				str("offerId", "Offer ID from the offers system that customer wants to purchase"),
				str("delivery", "Delivery method: 'eSIM' for immediate digital delivery, 'physical_sim' for mail delivery, 'pickup' for store collection"),
			},
			Invoke: o.create,
		},
		{
			Name:        "GetOrderStatus",
			Description: "Retrieves current order status, progress, and any pending actions required from customer or system.",
			Params:      []schema.Param{str("orderId", "Order identifier to check status for")},
			Invoke:      o.status,
		},
		{
			Name:        "UpdateOrder",
			Description: "Update order with additional information",
			Params: []schema.Param{
				str("orderId", "Order identifier"),
				obj("updateData", "Fields to update, e.g. {delivery: 'pickup', note: '...'}"),
			},
			Invoke: o.update,
		},
	}
}

func normalizeDelivery(v string) (string, bool) {
	i := slices.IndexFunc(deliveryMethods, func(m string) bool { return strings.EqualFold(m, v) })
	if i < 0 {
		return "", false
	}
	return deliveryMethods[i], true
}

func activationEstimate(delivery string) string {
	if delivery == "eSIM" {
		return "immediate"
	}
	return "2-3 days"
}

func (o *Orders) create(_ context.Context, args schema.Args) (any, error) {
	delivery, ok := normalizeDelivery(args.String("delivery"))
	if !ok {
		return nil, fmt.Errorf("unsupported delivery %q; use one of %s", args.String("delivery"), strings.Join(deliveryMethods, ", "))
	}
	now := o.now()
	ord := &order{
		OrderID:             newID("ord"),
		QuoteID:             newID("qte"),
		Status:              "pending_identity_verification",
		OfferID:             args.String("offerId"),
		DeliveryMethod:      delivery,
		TotalAmount:         amount("59.90"),
		Currency:            currency,
		NextStep:            "identity_verification",
		RequiredDocuments:   []string{"passport", "ID_card"},
		EstimatedActivation: activationEstimate(delivery),
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	o.mu.Lock()
	o.orders[ord.OrderID] = ord
	o.mu.Unlock()
	return *ord, nil
}

func (o *Orders) lookup(id string) (order, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	ord, ok := o.orders[id]
	if !ok {
		return order{}, fmt.Errorf("order %q not found", id)
	}
	return *ord, nil
}

func (o *Orders) status(_ context.Context, args schema.Args) (any, error) {
	ord, err := o.lookup(args.String("orderId"))
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"orderId":             ord.OrderID,
		"status":              ord.Status,
		"currentStep":         "KYC verification",
		"progress":            60,
		"estimatedCompletion": ord.UpdatedAt.Add(time.Hour),
	}, nil
}

func (o *Orders) update(_ context.Context, args schema.Args) (any, error) {
	id := args.String("orderId")
	data := schema.Args(args.Object("updateData"))

	o.mu.Lock()
	defer o.mu.Unlock()
	ord, ok := o.orders[id]
	if !ok {
		return nil, fmt.Errorf("order %q not found", id)
	}
	if data.Has("delivery") {
		delivery, ok := normalizeDelivery(data.String("delivery"))
		if !ok {
			return nil, fmt.Errorf("unsupported delivery %q", data.String("delivery"))
		}
		ord.DeliveryMethod = delivery
		ord.EstimatedActivation = activationEstimate(delivery)
	}
	if note := data.String("note"); note != "" {
		ord.Notes = append(ord.Notes, note)
	}
	ord.UpdatedAt = o.now()
	return map[string]any{
		"orderId": ord.OrderID,
		"status":  "updated",
		"order":   *ord,
		"message": "Order updated successfully",
	}, nil
}

// Provisioning issues SIM profiles for orders.
type Provisioning struct {
	now func() time.Time
}

func NewProvisioning(d Deps) *Provisioning { return &Provisioning{now: d.Now} }

func (*Provisioning) Name() string { return "Provisioning" }
func (*Provisioning) Description() string {
	return "Network provisioning service for activating mobile services, eSIMs, and configuring customer devices and accounts"
}

func (p *Provisioning) Operations() []schema.Operation {
	return []schema.Operation{
		{
			Name:        "IssueESIM",
			Description: "Issues and activates eSIM profile for customer order. Generates QR codes, activation codes, and phone numbers. Essential for immediate mobile service activation.",
			Params:      []schema.Param{str("orderId", "Order ID that requires eSIM provisioning and activation")},
			Invoke:      p.issueESIM,
		},
		{
			Name:        "CheckESIMStatus",
			Description: "Check eSIM activation status",
			Params:      []schema.Param{str("esimCode", "eSIM code returned by IssueESIM")},
			Invoke: func(_ context.Context, args schema.Args) (any, error) {
				return map[string]any{
					"esimCode":      args.String("esimCode"),
					"status":        "activated",
					"activatedAt":   p.now().Add(-2 * time.Minute),
					"deviceInfo":    "iPhone 15 Pro",
					"networkStatus": "connected",
				}, nil
			},
		},
		{
			Name:        "IssuePhysicalSIM",
			Description: "Provision physical SIM cards",
			Params: []schema.Param{
				str("orderId", "Order ID to provision SIM cards for"),
				str("deliveryAddress", "Postal address the SIM cards are shipped to"),
			},
			Invoke: p.issuePhysicalSIM,
		},
	}
}

func (p *Provisioning) issueESIM(_ context.Context, args schema.Args) (any, error) {
	code := strings.ToUpper(strings.TrimPrefix(newID("x"), "x_")) + "XYZ789"
	return map[string]any{
		"orderId":        args.String("orderId"),
		"esimCode":       code,
		"activationCode": "LPA:1$smdp.example.com$" + code,
		"phoneNumbers": []string{
			"+43 1 234 5678",
			"+43 1 234 5679",
			"+43 1 234 5680",
			"+43 1 234 5681",
		},
		"networkSettings": map[string]any{
			"apn":            "internet.example.com",
			"networkName":    "Example 5G",
			"roamingEnabled": true,
		},
		"status":                 "ready_for_activation",
		"validUntil":             p.now().AddDate(0, 0, 30),
		"activationInstructions": "Scan QR code or enter activation code in your device settings",
	}, nil
}

func (p *Provisioning) issuePhysicalSIM(_ context.Context, args schema.Args) (any, error) {
	cards := make([]map[string]string, 4)
	for i := range cards {
		cards[i] = map[string]string{
			"simId": fmt.Sprintf("SIM%03d", i+1),
			"iccid": fmt.Sprintf("8943%016d", i+1),
		}
	}
	return map[string]any{
		"orderId":           args.String("orderId"),
		"simCards":          cards,
		"deliveryAddress":   args.String("deliveryAddress"),
		"trackingNumber":    "TR" + strings.ToUpper(strings.TrimPrefix(newID("x"), "x_")),
		"estimatedDelivery": p.now().AddDate(0, 0, 2),
	}, nil
}
