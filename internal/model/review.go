package model

// FieldConflict is a field present with differing values on both sides of an
// incoming/existing comparison. Ephemeral, produced and consumed within one
// review cycle.
type FieldConflict struct {
	Field         string `json:"field"`
	ExistingValue string `json:"existing_value"`
	IncomingValue string `json:"incoming_value"`
}

// DuplicateAnalysis pairs one incoming record with the existing identity it
// matched by primary email. Conflicts and AutoMergeFields are disjoint and
// together cover exactly the comparable fields populated on the incoming side.
type DuplicateAnalysis struct {
	Incoming        ParsedContact   `json:"incoming"`
	Existing        StoredContact   `json:"existing"`
	Conflicts       []FieldConflict `json:"conflicts"`
	AutoMergeFields []string        `json:"auto_merge_fields"`
}

// Resolution actions for a duplicate pair.
const (
	ResolutionSkip  = "skip"
	ResolutionMerge = "merge"
)

// Field decision choices for a conflicting field.
const (
	ChoiceKeep   = "keep"
	ChoiceUseNew = "use_new"
)

// FieldDecision is a per-field keep/overwrite choice for one conflict.
type FieldDecision struct {
	Field  string `json:"field"`
	Choice string `json:"choice"`
}

// DuplicateResolution is a human or default decision for one
// DuplicateAnalysis. Conflicting fields without a decision default to keep;
// auto-merge fields fill only when the existing slot is empty.
type DuplicateResolution struct {
	ExistingContactID int64           `json:"existing_contact_id"`
	Incoming          ParsedContact   `json:"incoming"`
	Action            string          `json:"action"`
	FieldDecisions    []FieldDecision `json:"field_decisions,omitempty"`
}

// SameNameGroup collects every record, stored or incoming, whose normalized
// name matches. Only surfaced when total membership exceeds one.
type SameNameGroup struct {
	NormalizedName   string          `json:"normalized_name"`
	ExistingContacts []StoredContact `json:"existing_contacts"`
	NewContacts      []ParsedContact `json:"new_contacts"`
}

// Size returns the total group membership.
func (g *SameNameGroup) Size() int {
	return len(g.ExistingContacts) + len(g.NewContacts)
}

// Same-name decision actions. The default for an unreviewed group is
// keep_separate.
const (
	DecisionMerge        = "merge"
	DecisionKeepSeparate = "keep_separate"
	DecisionSkipNew      = "skip_new"
)

// SameNameDecision resolves one same-name group, keyed by normalized name.
type SameNameDecision struct {
	Action string `json:"action"`
}

// CommitError records a per-record failure inside a commit.
type CommitError struct {
	TempID string `json:"temp_id"`
	Error  string `json:"error"`
}

// CommitSummary is the outcome of one commit invocation. Every processed
// record increments exactly one counter or appends exactly one error.
type CommitSummary struct {
	Created int           `json:"created"`
	Updated int           `json:"updated"`
	Skipped int           `json:"skipped"`
	Errors  []CommitError `json:"errors,omitempty"`
}
