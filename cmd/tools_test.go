package cmd

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contactdesk/contactdesk/internal/capability"
	"github.com/contactdesk/contactdesk/internal/schema"
)

func TestPrintCatalog(t *testing.T) {
	noop := func(context.Context, schema.Args) (any, error) { return nil, nil }
	cat, err := capability.NewRegistryBuilder(
		capability.NewStaticProvider("Billing", "Billing", schema.Operation{
			Name:        "GetInvoice",
			Description: "Fetch one invoice",
			Params: []schema.Param{
				{Name: "accountId", Description: "Account", Type: schema.TypeString},
				{Name: "month", Description: "YYYY-MM", Type: schema.TypeString, Optional: true},
			},
			Invoke: noop,
		}),
	).Discover()
	require.NoError(t, err)

	var buf bytes.Buffer
	printCatalog(&buf, cat)

	out := buf.String()
	assert.Contains(t, out, "1 operations from 1 providers")
	assert.Contains(t, out, "\nBilling\n")
	assert.Contains(t, out, "Billing.GetInvoice(accountId: string, month?: string)")
	assert.Contains(t, out, "Fetch one invoice")
}
