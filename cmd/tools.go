package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/contactdesk/contactdesk/internal/capability"
	"github.com/contactdesk/contactdesk/internal/dependency"
)

var toolsJSON bool

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "List the tool catalog offered to the model",
	RunE:  runTools,
}

func init() {
	toolsCmd.Flags().BoolVar(&toolsJSON, "json", false, "Print the serialized definitions sent to the completion service")
}

func runTools(_ *cobra.Command, _ []string) error {
	container, err := dependency.New(cfg)
	if err != nil {
		return err
	}
	cat, err := container.Catalog()
	if err != nil {
		return err
	}
	if toolsJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(cat.Definitions())
	}
	printCatalog(os.Stdout, cat)
	return nil
}

// printCatalog lists operations grouped by provider in registration order.
func printCatalog(w io.Writer, cat *capability.Catalog) {
	fmt.Fprintf(w, "%s %d operations from %d providers\n", logo, cat.Len(), len(cat.Providers()))

	current := ""
	for _, d := range cat.List() {
		if d.Provider() != current {
			current = d.Provider()
			fmt.Fprintf(w, "\n%s\n", current)
		}
		params := make([]string, 0, len(d.Params()))
		for _, p := range d.Params() {
			s := p.Name + ": " + string(p.Type)
			if p.Optional {
				s = p.Name + "?: " + string(p.Type)
			}
			params = append(params, s)
		}
		fmt.Fprintf(w, "  %s(%s)\n      %s\n", d.QualifiedName(), strings.Join(params, ", "), d.Description())
	}
}
