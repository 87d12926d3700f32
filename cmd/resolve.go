package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sells-group/coverage-cli/internal/model"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: "Show how a source resolves to a country",
	RunE: func(cmd *cobra.Command, _ []string) error {
		title, _ := cmd.Flags().GetString("title")
		structured, _ := cmd.Flags().GetString("country")
		uri, _ := cmd.Flags().GetString("uri")

		resolver, err := initResolver(cfg)
		if err != nil {
			return err
		}
		res := resolver.Resolve(model.Source{Title: title, Country: structured, URI: uri})

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "COUNTRY\tCODE\tSTEP")
		fmt.Fprintf(w, "%s\t%s\t%s\n", res.Country, res.Code, res.Step)
		return w.Flush()
	},
}

func init() {
	resolveCmd.Flags().String("title", "", "source title")
	resolveCmd.Flags().String("country", "", "structured country label")
	resolveCmd.Flags().String("uri", "", "source URI or domain")
	rootCmd.AddCommand(resolveCmd)
}
