package plugins

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/contactdesk/contactdesk/internal/schema"
)

type product struct {
	ID           string   `json:"productId"`
	Name         string   `json:"name"`
	Price        Amount   `json:"price"`
	Currency     string   `json:"currency"`
	Lines        int      `json:"lines"`
	Data         string   `json:"data"`
	Roaming      []string `json:"roaming"`
	Technologies []string `json:"technologies"`
	Features     []string `json:"features"`
	Description  string   `json:"description"`
	Speed        string   `json:"speed"`
	Contract     int      `json:"contractPeriod"`
}

var products = []product{
	{
		ID:           "plan_5g_family",
		Name:         "Family Unlimited 5G EU",
		Price:        amount("59.90"),
		Currency:     currency,
		Lines:        4,
		Data:         "unlimited",
		Roaming:      []string{"EU", "Switzerland", "Norway"},
		Technologies: []string{"5G", "FTTH"},
		Features:     []string{"EU roaming", "Unlimited data", "4 lines", "family"},
		Description:  "Perfect family plan with 4 lines, unlimited data, and EU roaming",
		Speed:        "up to 1 Gbps",
		Contract:     24,
	},
	{
		ID:           "plan_fiber_1000",
		Name:         "Fiber Home 1000",
		Price:        amount("44.90"),
		Currency:     currency,
		Lines:        1,
		Data:         "unlimited",
		Technologies: []string{"FTTH"},
		Features:     []string{"Home internet", "1000 Mbps", "Free router", "fiber"},
		Description:  "Symmetric fiber internet for the home with a free Wi-Fi 6 router",
		Speed:        "1000 Mbps",
		Contract:     12,
	},
	{
		ID:           "plan_mobile_basic",
		Name:         "Mobile Basic 20",
		Price:        amount("14.90"),
		Currency:     currency,
		Lines:        1,
		Data:         "20 GB",
		Roaming:      []string{"EU"},
		Technologies: []string{"5G", "LTE"},
		Features:     []string{"EU roaming", "20 GB data", "single line", "sim only"},
		Description:  "Affordable single-line SIM-only plan",
		Speed:        "up to 300 Mbps",
	},
}

func findProduct(id string) (product, bool) {
	for _, p := range products {
		if p.ID == id {
			return p, true
		}
	}
	return product{}, false
}

// keywords is the searchable text of a product, lower-cased.
func (p product) keywords() string {
	parts := []string{p.Name, p.Data, p.Description}
	parts = append(parts, p.Features...)
	parts = append(parts, p.Technologies...)
	parts = append(parts, p.Roaming...)
	return strings.ToLower(strings.Join(parts, " "))
}

// Catalog searches the product catalog.
type Catalog struct{}

func (Catalog) Name() string { return "Catalog" }
func (Catalog) Description() string {
	return "Product catalog service for searching and retrieving telecommunications plans, devices, and services"
}

func (c Catalog) Operations() []schema.Operation {
	return []schema.Operation{
		{
			Name:        "SearchProducts",
			Description: "Searches the product catalog for plans and services that match customer requirements. Use natural language queries like 'family plan 4 lines EU roaming' or technical filters.",
			Params: []schema.Param{
				str("query", "Natural language search query describing customer needs (e.g., 'family plan with unlimited data')"),
				optional(obj("filters", "Optional filters object with properties like: techs (array), maxPrice (number)")),
			},
			Invoke: c.search,
		},
		{
			Name:        "GetProduct",
			Description: "Retrieves comprehensive details about a specific product by its ID. Use this for detailed specifications and pricing information.",
			Params:      []schema.Param{str("productId", "Product identifier from search results")},
			Invoke:      c.getProduct,
		},
	}
}

type productMatch struct {
	product
	MatchReasons []string `json:"matchReasons"`
	score        int
}

func (Catalog) search(_ context.Context, args schema.Args) (any, error) {
	terms := strings.Fields(strings.ToLower(args.String("query")))
	filters := schema.Args(args.Object("filters"))
	techs := filters.Strings("techs")
	maxPrice, hasMax := filters.Float("maxPrice")

	var matches []productMatch
	for _, p := range products {
		if len(techs) > 0 && !slices.ContainsFunc(techs, func(t string) bool { return slices.Contains(p.Technologies, strings.ToUpper(t)) }) {
			continue
		}
		if hasMax && p.Price.GreaterThan(decimal.NewFromFloat(maxPrice)) {
			continue
		}
		m := productMatch{product: p}
		text := p.keywords()
		for _, term := range terms {
			if len(term) > 1 && strings.Contains(text, term) {
				m.score++
				m.MatchReasons = append(m.MatchReasons, term)
			}
		}
		if m.score > 0 || len(terms) == 0 {
			matches = append(matches, m)
		}
	}
	sort.SliceStable(matches, func(i, j int) bool { return matches[i].score > matches[j].score })

	score := 0.0
	if len(matches) > 0 && len(terms) > 0 {
		score = float64(matches[0].score) / float64(len(terms))
	}
	return map[string]any{
		"products":     matches,
		"matchScore":   score,
		"totalResults": len(matches),
	}, nil
}

func (Catalog) getProduct(_ context.Context, args schema.Args) (any, error) {
	id := args.String("productId")
	p, ok := findProduct(id)
	if !ok {
		return nil, fmt.Errorf("product %q not found", id)
	}
	return map[string]any{
		"id":          p.ID,
		"name":        p.Name,
		"price":       p.Price,
		"currency":    p.Currency,
		"description": p.Description,
		"specifications": map[string]any{
			"lines":          p.Lines,
			"data":           p.Data,
			"roaming":        p.Roaming,
			"speed":          p.Speed,
			"networkTech":    strings.Join(p.Technologies, "/"),
			"contractPeriod": p.Contract,
			"setupFee":       amount("0"),
		},
		"eligibility": map[string]any{
			"minAge":      18,
			"creditCheck": p.Contract > 0,
			"kycRequired": true,
		},
	}, nil
}

type offer struct {
	OfferID         string         `json:"offerId"`
	ProductID       string         `json:"productId"`
	Name            string         `json:"name"`
	Status          string         `json:"status"`
	Price           Amount         `json:"price"`
	MonthlyPrice    Amount         `json:"monthlyPrice"`
	Currency        string         `json:"currency"`
	ValidUntil      time.Time      `json:"validUntil"`
	Terms           map[string]any `json:"terms"`
	DeliveryOptions []string       `json:"deliveryOptions"`
	Discounts       []string       `json:"discountsApplied"`
	Reason          string         `json:"reasonForRecommendation"`
}

// Offers builds personalized offers and remembers them for the process
// lifetime so GetOffer can return what was quoted.
type Offers struct {
	now func() time.Time

	mu     sync.RWMutex
	offers map[string]offer
}

func NewOffers(d Deps) *Offers {
	return &Offers{now: d.Now, offers: make(map[string]offer)}
}

func (*Offers) Name() string { return "Offers" }
func (*Offers) Description() string {
	return "Personalized offer engine that creates customized pricing and service packages based on customer requirements"
}

func (o *Offers) Operations() []schema.Operation {
	return []schema.Operation{
		{
			Name:        "BuildPersonalizedOffer",
			Description: "Creates a personalized offer tailored to customer needs and technical constraints. Considers pricing, discounts, bundle opportunities, and service availability.",
			Params: []schema.Param{
				obj("needs", "Customer needs object containing requirements like: {lines: number, roamingEU: boolean, dataUsage: string, budget: number}"),
				optional(obj("constraints", "Technical constraints object like: {techs: array, location: string, timeline: string}")),
			},
			Invoke: o.build,
		},
		{
			Name:        "GetOffer",
			Description: "Retrieves detailed information about an existing offer including terms, pricing, and validity period.",
			Params:      []schema.Param{str("offerId", "Offer identifier to retrieve details for")},
			Invoke:      o.get,
		},
	}
}

func (o *Offers) build(_ context.Context, args schema.Args) (any, error) {
	needs := schema.Args(args.Object("needs"))
	constraints := schema.Args(args.Object("constraints"))

	lines, _ := needs.Float("lines")
	pick, reason := "plan_mobile_basic", "Lowest-cost single line plan"
	switch {
	case lines >= 2:
		pick, reason = "plan_5g_family", fmt.Sprintf("Perfect match for %d-line family with EU travel needs", int(lines))
	case slices.Contains(constraints.Strings("techs"), "FTTH"):
		pick, reason = "plan_fiber_1000", "Fiber is available at the customer's address"
	}
	p, _ := findProduct(pick)

	monthly := p.Price.Decimal
	discounts := []string{}
	if lines >= 4 {
		discounts = append(discounts, "family_discount_10_percent")
		monthly = monthly.Mul(decimal.RequireFromString("0.9")).Round(2)
	}
	if budget, ok := needs.Float("budget"); ok && monthly.GreaterThan(decimal.NewFromFloat(budget)) {
		return nil, fmt.Errorf("no offer fits a monthly budget of %.2f %s", budget, currency)
	}

	of := offer{
		OfferID:      newID("offer"),
		ProductID:    p.ID,
		Name:         p.Name,
		Status:       "active",
		Price:        p.Price,
		MonthlyPrice: Amount{monthly},
		Currency:     currency,
		ValidUntil:   o.now().AddDate(0, 0, 30),
		Terms: map[string]any{
			"lines":          p.Lines,
			"data":           p.Data,
			"roaming":        strings.Join(p.Roaming, ", "),
			"contractPeriod": p.Contract,
			"setupFee":       amount("0"),
		},
		DeliveryOptions: []string{"eSIM", "physical SIM", "home delivery"},
		Discounts:       discounts,
		Reason:          reason,
	}

	o.mu.Lock()
	o.offers[of.OfferID] = of
	o.mu.Unlock()
	return of, nil
}

func (o *Offers) get(_ context.Context, args schema.Args) (any, error) {
	id := args.String("offerId")
	o.mu.RLock()
	of, ok := o.offers[id]
	o.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("offer %q not found", id)
	}
	if o.now().After(of.ValidUntil) {
		of.Status = "expired"
	}
	return of, nil
}
