package contact

import (
	"context"
	"errors"
	"fmt"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/contacts-cli/internal/model"
)

// ErrInvalidRequest marks a malformed commit request: a caller bug rather
// than a data problem. Commit aborts with zero writes when it is returned.
var ErrInvalidRequest = errors.New("invalid commit request")

// ScoreFunc computes an enrichment score from a contact's field set and its
// current tag count. Pure and deterministic; the weighting table lives
// behind it.
type ScoreFunc func(fields model.ContactFields, tagCount int) float64

// CommitRequest carries everything one commit invocation applies: the
// records with no duplicate match, the per-pair duplicate decisions, and
// the same-name decisions keyed by normalized name.
//
// Same-name merge decisions are single-use: re-running a decision set whose
// merge already deleted absorbed records will not reconstruct the original
// group and may re-create records the first run merged away.
type CommitRequest struct {
	NewContacts   []model.ParsedContact             `json:"new_contacts"`
	Resolutions   []model.DuplicateResolution       `json:"resolutions,omitempty"`
	NameDecisions map[string]model.SameNameDecision `json:"name_decisions,omitempty"`
}

// Engine applies resolved import decisions against the contact store.
// Processing is strictly sequential: same-name merges delete and update
// stored records, and later steps must observe those writes.
type Engine struct {
	store Store
	score ScoreFunc
}

// NewEngine creates a commit engine over the given store and scorer.
func NewEngine(store Store, score ScoreFunc) *Engine {
	return &Engine{store: store, score: score}
}

// Commit applies a full decision set and reports a summary of partial
// success. Order is fixed: same-name decisions, then remaining new-record
// creations, then duplicate resolutions. A failure on one record or group
// is recorded against its tempId and never aborts the rest; nothing is
// rolled back. Only a malformed request aborts, before any write.
func (e *Engine) Commit(ctx context.Context, req CommitRequest) (*model.CommitSummary, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	existing, err := e.store.FindAll(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "contact: load existing contacts")
	}

	groups := GroupByName(req.NewContacts, existing)
	byName := make(map[string]model.SameNameGroup, len(groups))
	for _, g := range groups {
		byName[g.NormalizedName] = g
	}
	for name, d := range req.NameDecisions {
		if d.Action == model.DecisionKeepSeparate {
			continue
		}
		if _, ok := byName[name]; !ok {
			return nil, eris.Wrapf(ErrInvalidRequest, "contact: same-name decision %q matches no group", name)
		}
	}

	summary := &model.CommitSummary{}
	processed := make(map[string]bool)

	// Step 1: same-name decisions.
	for _, g := range groups {
		decision, ok := req.NameDecisions[g.NormalizedName]
		if !ok || decision.Action == model.DecisionKeepSeparate {
			continue
		}
		switch decision.Action {
		case model.DecisionSkipNew:
			for _, pc := range g.NewContacts {
				processed[pc.TempID] = true
				summary.Skipped++
			}
		case model.DecisionMerge:
			e.mergeGroup(ctx, g, processed, summary)
		}
	}

	// Step 2: remaining new contacts, one create each.
	for _, pc := range req.NewContacts {
		if processed[pc.TempID] {
			continue
		}
		if err := e.createContact(ctx, pc.ContactFields); err != nil {
			summary.Errors = append(summary.Errors, model.CommitError{
				TempID: pc.TempID,
				Error:  err.Error(),
			})
			continue
		}
		summary.Created++
	}

	// Step 3: duplicate resolutions.
	for _, res := range req.Resolutions {
		if res.Action == model.ResolutionSkip {
			summary.Skipped++
			continue
		}
		if err := e.applyResolution(ctx, res); err != nil {
			summary.Errors = append(summary.Errors, model.CommitError{
				TempID: res.Incoming.TempID,
				Error:  err.Error(),
			})
			continue
		}
		summary.Updated++
	}

	zap.L().Info("commit: batch applied",
		zap.Int("created", summary.Created),
		zap.Int("updated", summary.Updated),
		zap.Int("skipped", summary.Skipped),
		zap.Int("errors", len(summary.Errors)),
	)

	return summary, nil
}

// mergeGroup collapses one same-name group under a merge decision. The
// group's new records are marked processed up front, success or not, so a
// failed merge never degrades into plain creates later in the commit.
func (e *Engine) mergeGroup(ctx context.Context, g model.SameNameGroup, processed map[string]bool, summary *model.CommitSummary) {
	records := make([]Record, 0, g.Size())
	for _, c := range g.ExistingContacts {
		records = append(records, Record{ID: c.ID, Fields: c.ContactFields})
	}
	for _, pc := range g.NewContacts {
		if processed[pc.TempID] {
			continue
		}
		records = append(records, Record{Fields: pc.ContactFields})
		processed[pc.TempID] = true
	}

	merged := Merge(records)

	fail := func(err error) {
		if len(g.NewContacts) == 0 {
			summary.Errors = append(summary.Errors, model.CommitError{
				Error: fmt.Sprintf("merge group %q: %s", g.NormalizedName, err),
			})
			return
		}
		for _, pc := range g.NewContacts {
			summary.Errors = append(summary.Errors, model.CommitError{
				TempID: pc.TempID,
				Error:  err.Error(),
			})
		}
	}

	if len(g.ExistingContacts) == 0 {
		if err := e.createContact(ctx, merged); err != nil {
			fail(err)
			return
		}
		summary.Created++
		return
	}

	// The surviving record follows the same ordering rule as base
	// selection; the rest of the group is absorbed and deleted.
	existing := make([]Record, 0, len(g.ExistingContacts))
	for _, c := range g.ExistingContacts {
		existing = append(existing, Record{ID: c.ID, Fields: c.ContactFields})
	}
	targetID := SortRecords(existing)[0].ID

	err := e.store.MutateContact(ctx, targetID, func(c *model.StoredContact, tagCount int) error {
		c.ContactFields = merged
		score := e.score(merged, tagCount)
		c.EnrichmentScore = &score
		return nil
	})
	if err != nil {
		fail(eris.Wrapf(err, "contact: merge into %d", targetID))
		return
	}

	for _, c := range g.ExistingContacts {
		if c.ID == targetID {
			continue
		}
		if err := e.store.DeleteContact(ctx, c.ID); err != nil {
			fail(eris.Wrapf(err, "contact: absorb %d into %d", c.ID, targetID))
			return
		}
		zap.L().Debug("commit: absorbed duplicate identity",
			zap.Int64("deleted_id", c.ID),
			zap.Int64("target_id", targetID),
			zap.String("name", g.NormalizedName),
		)
	}

	summary.Updated++
}

// applyResolution merges one duplicate pair and persists the merged fields
// together with the recomputed enrichment score in the same logical update.
func (e *Engine) applyResolution(ctx context.Context, res model.DuplicateResolution) error {
	return e.store.MutateContact(ctx, res.ExistingContactID, func(c *model.StoredContact, tagCount int) error {
		ApplyResolution(c, res)
		score := e.score(c.ContactFields, tagCount)
		c.EnrichmentScore = &score
		return nil
	})
}

// createContact inserts a new identity with its enrichment score computed
// from its own fields. Tags cannot be set during import, so the tag count
// is zero.
func (e *Engine) createContact(ctx context.Context, fields model.ContactFields) error {
	score := e.score(fields, 0)
	sc := &model.StoredContact{
		ContactFields:   fields,
		EnrichmentScore: &score,
	}
	if err := e.store.CreateContact(ctx, sc); err != nil {
		return eris.Wrap(err, "contact: create")
	}
	return nil
}

// validateRequest rejects request shapes that indicate a caller bug. It
// performs no writes; every check here aborts the whole commit.
func validateRequest(req CommitRequest) error {
	seen := make(map[string]bool, len(req.NewContacts))
	for i, pc := range req.NewContacts {
		if pc.TempID == "" {
			return eris.Wrapf(ErrInvalidRequest, "contact: new contact %d has no temp id", i)
		}
		if seen[pc.TempID] {
			return eris.Wrapf(ErrInvalidRequest, "contact: duplicate temp id %q", pc.TempID)
		}
		seen[pc.TempID] = true
	}

	for i, res := range req.Resolutions {
		switch res.Action {
		case model.ResolutionSkip, model.ResolutionMerge:
		default:
			return eris.Wrapf(ErrInvalidRequest, "contact: resolution %d has unknown action %q", i, res.Action)
		}
		if res.Incoming.TempID == "" {
			return eris.Wrapf(ErrInvalidRequest, "contact: resolution %d has no incoming temp id", i)
		}
		if seen[res.Incoming.TempID] {
			return eris.Wrapf(ErrInvalidRequest, "contact: duplicate temp id %q across request", res.Incoming.TempID)
		}
		seen[res.Incoming.TempID] = true
		if res.Action == model.ResolutionMerge && res.ExistingContactID == 0 {
			return eris.Wrapf(ErrInvalidRequest, "contact: merge resolution for %q has no existing contact id", res.Incoming.TempID)
		}
		for _, d := range res.FieldDecisions {
			if !IsComparableField(d.Field) {
				return eris.Wrapf(ErrInvalidRequest, "contact: field decision on unknown field %q", d.Field)
			}
			if d.Choice != model.ChoiceKeep && d.Choice != model.ChoiceUseNew {
				return eris.Wrapf(ErrInvalidRequest, "contact: field decision on %q has unknown choice %q", d.Field, d.Choice)
			}
		}
	}

	for name, d := range req.NameDecisions {
		switch d.Action {
		case model.DecisionMerge, model.DecisionKeepSeparate, model.DecisionSkipNew:
		default:
			return eris.Wrapf(ErrInvalidRequest, "contact: same-name decision %q has unknown action %q", name, d.Action)
		}
	}

	return nil
}
