// Package plugins holds the leaf capability providers of the contact
// assistant. Their outputs are canned or lightly derived from the input;
// none of them talk to real back-office systems.
package plugins

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/contactdesk/contactdesk/internal/notify"
	"github.com/contactdesk/contactdesk/internal/schema"
	"github.com/contactdesk/contactdesk/pkg/logger"
)

// Deps are the collaborators shared by providers that need them.
type Deps struct {
	Now      func() time.Time
	Notifier notify.Sender
	Log      *logger.Logger
}

func (d Deps) withDefaults() Deps {
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Log == nil {
		d.Log = logger.Get()
	}
	if d.Notifier == nil {
		d.Notifier = notify.NewLogSender(d.Log)
	}
	return d
}

// All returns every provider in registration order. This list is the single
// place a new capability is added.
func All(d Deps) []schema.CapabilityProvider {
	d = d.withDefaults()
	return []schema.CapabilityProvider{
		Address{},
		Serviceability{},
		NewAppointments(d),
		NewAuth(d),
		NewGuardrails(d),
		NewKYC(d),
		Redaction{},
		Billing{},
		Usage{},
		NewCRM(d),
		Catalog{},
		NewOffers(d),
		Humans{},
		Device{},
		Network{},
		NewNotifications(d),
		NewOrders(d),
		NewProvisioning(d),
		NewPorting(d),
	}
}

// newID returns prefix_ followed by eight hex characters.
func newID(prefix string) string {
	return prefix + "_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}

// Amount is a money value rendered as a JSON number with two decimals.
type Amount struct {
	decimal.Decimal
}

func amount(s string) Amount { return Amount{decimal.RequireFromString(s)} }

func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(a.StringFixed(2)), nil
}

const currency = "EUR"

func str(name, description string) schema.Param {
	return schema.Param{Name: name, Description: description, Type: schema.TypeString}
}

func num(name, description string) schema.Param {
	return schema.Param{Name: name, Description: description, Type: schema.TypeNumber}
}

func obj(name, description string) schema.Param {
	return schema.Param{Name: name, Description: description, Type: schema.TypeObject}
}

func strList(name, description string) schema.Param {
	return schema.Param{Name: name, Description: description, Type: schema.TypeArray, Items: schema.TypeString}
}

func optional(p schema.Param) schema.Param {
	p.Optional = true
	return p
}
