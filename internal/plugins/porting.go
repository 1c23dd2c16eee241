package plugins

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/contactdesk/contactdesk/internal/schema"
)

// portingLeadDays is the number of business days a port-in takes.
const portingLeadDays = 3

var (
	reMSISDN = regexp.MustCompile(`^\+?\d{8,15}$`)
	rePIN    = regexp.MustCompile(`^\d{4,6}$`)
)

// Porting moves numbers in from other carriers.
type Porting struct {
	now func() time.Time
}

func NewPorting(d Deps) *Porting { return &Porting{now: d.Now} }

func (*Porting) Name() string        { return "Porting" }
func (*Porting) Description() string { return "Number portability from other carriers" }

func (p *Porting) Operations() []schema.Operation {
	msisdn := str("msisdn", "Phone number to port in international format, e.g. +436641234567")
	carrier := str("currentCarrier", "Name of the customer's current carrier")
	return []schema.Operation{
		{
			Name:        "CheckEligibility",
			Description: "Checks whether a number can be ported from its current carrier",
			Params:      []schema.Param{msisdn, carrier},
			Invoke: func(_ context.Context, args schema.Args) (any, error) {
				number, err := cleanMSISDN(args.String("msisdn"))
				if err != nil {
					return nil, err
				}
				return map[string]any{
					"msisdn":         number,
					"currentCarrier": args.String("currentCarrier"),
					"eligible":       true,
				}, nil
			},
		},
		{
			Name:        "Submit",
			Description: "Submits a port-in request and returns the scheduled port date",
			Params:      []schema.Param{msisdn, carrier, str("accountPin", "Account PIN at the current carrier")},
			Invoke:      p.submit,
		},
	}
}

func (p *Porting) submit(_ context.Context, args schema.Args) (any, error) {
	number, err := cleanMSISDN(args.String("msisdn"))
	if err != nil {
		return nil, err
	}
	if !rePIN.MatchString(args.String("accountPin")) {
		return nil, errors.New("accountPin must be 4 to 6 digits")
	}
	return map[string]any{
		"msisdn":   number,
		"portId":   newID("port"),
		"portDate": addBusinessDays(p.now(), portingLeadDays).Format(time.DateOnly),
		"status":   "submitted",
	}, nil
}

func cleanMSISDN(raw string) (string, error) {
	number := strings.NewReplacer(" ", "", "-", "", "/", "").Replace(raw)
	if !reMSISDN.MatchString(number) {
		return "", fmt.Errorf("invalid msisdn %q", raw)
	}
	return number, nil
}

func addBusinessDays(t time.Time, days int) time.Time {
	for days > 0 {
		t = t.AddDate(0, 0, 1)
		if wd := t.Weekday(); wd != time.Saturday && wd != time.Sunday {
			days--
		}
	}
	return t
}
