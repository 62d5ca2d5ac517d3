package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/sells-group/contacts-cli/internal/contact"
	"github.com/sells-group/contacts-cli/internal/model"
)

var analyzeFiles []string

// analysisReport is the review payload: everything a human needs to decide
// duplicate resolutions and same-name decisions before committing.
type analysisReport struct {
	NewContacts    []model.ParsedContact     `json:"new_contacts"`
	Duplicates     []model.DuplicateAnalysis `json:"duplicates"`
	SameNameGroups []model.SameNameGroup     `json:"same_name_groups"`
	Skipped        []model.SkippedEntry      `json:"skipped,omitempty"`
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyze export files against the store and emit a JSON review report",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		batch, skipped, err := parseFiles(analyzeFiles)
		if err != nil {
			return err
		}

		st, err := newStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		newContacts, duplicates, err := contact.DetectDuplicates(ctx, st, batch)
		if err != nil {
			return err
		}
		existing, err := st.FindAll(ctx)
		if err != nil {
			return err
		}

		report := analysisReport{
			NewContacts:    newContacts,
			Duplicates:     duplicates,
			SameNameGroups: contact.GroupByName(newContacts, existing),
			Skipped:        skipped,
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	},
}

func init() {
	analyzeCmd.Flags().StringArrayVar(&analyzeFiles, "file", nil, "export file to analyze (repeatable)")
	_ = analyzeCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(analyzeCmd)
}
