package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/contacts-cli/internal/contact"
	"github.com/sells-group/contacts-cli/internal/model"
	"github.com/sells-group/contacts-cli/internal/parser"
)

var (
	importFiles           []string
	importDryRun          bool
	importMergeDuplicates bool
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import contact exports into the address book",
	Long:  "Parses one or more export files, detects duplicates by email and name collisions by normalized name, then commits. Duplicates are skipped unless --merge-duplicates; name collisions are kept separate and reported for review with the analyze command.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		batch, skipped, err := parseFiles(importFiles)
		if err != nil {
			return err
		}
		for _, sk := range skipped {
			zap.L().Warn("import: entry skipped at parse",
				zap.Int("raw_index", sk.RawIndex),
				zap.String("reason", sk.Reason),
			)
		}
		if cfg.Import.MaxBatchSize > 0 && len(batch) > cfg.Import.MaxBatchSize {
			return eris.Errorf("import: batch of %d exceeds max_batch_size %d", len(batch), cfg.Import.MaxBatchSize)
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
		groups := contact.GroupByName(newContacts, existing)

		zap.L().Info("import: batch analyzed",
			zap.Int("parsed", len(batch)),
			zap.Int("new", len(newContacts)),
			zap.Int("duplicates", len(duplicates)),
			zap.Int("name_collisions", len(groups)),
		)

		if importDryRun {
			for _, d := range duplicates {
				zap.L().Info("import: duplicate",
					zap.String("temp_id", d.Incoming.TempID),
					zap.String("email", d.Incoming.PrimaryEmail),
					zap.Int64("existing_id", d.Existing.ID),
					zap.Int("conflicts", len(d.Conflicts)),
				)
			}
			for _, g := range groups {
				zap.L().Info("import: name collision",
					zap.String("name", g.NormalizedName),
					zap.Int("existing", len(g.ExistingContacts)),
					zap.Int("new", len(g.NewContacts)),
				)
			}
			return nil
		}

		score, err := newScoreFunc()
		if err != nil {
			return err
		}

		action := model.ResolutionSkip
		if importMergeDuplicates {
			action = model.ResolutionMerge
		}
		resolutions := make([]model.DuplicateResolution, 0, len(duplicates))
		for _, d := range duplicates {
			resolutions = append(resolutions, model.DuplicateResolution{
				ExistingContactID: d.Existing.ID,
				Incoming:          d.Incoming,
				Action:            action,
			})
		}

		engine := contact.NewEngine(st, score)
		summary, err := engine.Commit(ctx, contact.CommitRequest{
			NewContacts: newContacts,
			Resolutions: resolutions,
		})
		if err != nil {
			return err
		}

		for _, e := range summary.Errors {
			zap.L().Warn("import: record failed",
				zap.String("temp_id", e.TempID),
				zap.String("error", e.Error),
			)
		}
		zap.L().Info("import complete",
			zap.Int("created", summary.Created),
			zap.Int("updated", summary.Updated),
			zap.Int("skipped", summary.Skipped),
			zap.Int("errors", len(summary.Errors)),
		)
		return nil
	},
}

// parseFiles parses every export concurrently and flattens the results in
// file order. Temp ids get a per-file prefix so they stay unique across the
// combined batch.
func parseFiles(paths []string) ([]model.ParsedContact, []model.SkippedEntry, error) {
	batches := make([]*parser.Batch, len(paths))

	var g errgroup.Group
	for i, path := range paths {
		g.Go(func() error {
			b, err := parser.Parse(path)
			if err != nil {
				return err
			}
			batches[i] = b
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	var (
		contacts []model.ParsedContact
		skipped  []model.SkippedEntry
	)
	for i, b := range batches {
		for _, c := range b.Contacts {
			if len(paths) > 1 {
				c.TempID = fmt.Sprintf("f%d-%s", i, c.TempID)
			}
			contacts = append(contacts, c)
		}
		skipped = append(skipped, b.Skipped...)
	}
	return contacts, skipped, nil
}

func init() {
	importCmd.Flags().StringArrayVar(&importFiles, "file", nil, "export file to import (repeatable)")
	importCmd.Flags().BoolVar(&importDryRun, "dry-run", false, "analyze only, write nothing")
	importCmd.Flags().BoolVar(&importMergeDuplicates, "merge-duplicates", false, "merge email duplicates with default field decisions instead of skipping them")
	_ = importCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(importCmd)
}
