// File: cmd/tools.go
package cmd

import (
	"fmt"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/xkilldash9x/scalpel-compare/internal/adapters"
	"github.com/xkilldash9x/scalpel-compare/internal/config"
)

// newToolsCmd lists the supported tools and how their severities map.
func newToolsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tools",
		Short: "List supported tools and their severity mappings",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := getConfigFromContext(cmd.Context())
			if err != nil {
				return err
			}
			return runTools(cmd, cfg)
		},
	}
}

func runTools(cmd *cobra.Command, cfg config.Interface) error {
	registry := adapters.DefaultRegistry(nil)

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TOOL\tENABLED\tSEVERITY MAPPING")
	for _, name := range registry.Names() {
		adapter, err := registry.Lookup(name)
		if err != nil {
			return err
		}
		tokens := adapter.Kind().Tokens()
		keys := make([]string, 0, len(tokens))
		for token := range tokens {
			keys = append(keys, token)
		}
		sort.Strings(keys)

		mapping := make([]string, 0, len(keys))
		for _, token := range keys {
			mapping = append(mapping, token+"="+string(tokens[token]))
		}
		enabled := "yes"
		if !cfg.Compare().ToolAllowed(name) {
			enabled = "no"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", name, enabled, strings.Join(mapping, " "))
	}
	return w.Flush()
}
