package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var contactsJSON bool

var contactsCmd = &cobra.Command{
	Use:   "contacts",
	Short: "Inspect stored contacts",
}

var contactsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored contacts with enrichment scores",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := newStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		contacts, err := st.FindAll(ctx)
		if err != nil {
			return err
		}

		if contactsJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(contacts)
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tEMAIL\tCOMPANY\tSCORE")
		for _, c := range contacts {
			score := "-"
			if c.EnrichmentScore != nil {
				score = fmt.Sprintf("%.2f", *c.EnrichmentScore)
			}
			fmt.Fprintf(w, "%d\t%s %s\t%s\t%s\t%s\n",
				c.ID, c.FirstName, c.LastName, c.PrimaryEmail, c.Company, score)
		}
		return w.Flush()
	},
}

func init() {
	contactsListCmd.Flags().BoolVar(&contactsJSON, "json", false, "emit JSON instead of a table")
	contactsCmd.AddCommand(contactsListCmd)
	rootCmd.AddCommand(contactsCmd)
}
