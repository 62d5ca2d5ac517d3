package contact

import (
	"github.com/sells-group/contacts-cli/internal/model"
)

// GroupByName partitions new and existing records by normalized name and
// returns the groups holding more than one total member. Groups come back
// in first-encounter order (existing records scanned first, then new), and
// each record lands in at most one group. Records whose normalized name is
// empty are never grouped.
func GroupByName(newContacts []model.ParsedContact, existing []model.StoredContact) []model.SameNameGroup {
	byName := make(map[string]*model.SameNameGroup)
	var order []string

	lookup := func(key string) *model.SameNameGroup {
		if g, ok := byName[key]; ok {
			return g
		}
		g := &model.SameNameGroup{NormalizedName: key}
		byName[key] = g
		order = append(order, key)
		return g
	}

	for _, c := range existing {
		key := NormalizeName(c.FirstName, c.LastName)
		if key == "" {
			continue
		}
		g := lookup(key)
		g.ExistingContacts = append(g.ExistingContacts, c)
	}
	for _, pc := range newContacts {
		key := NormalizeName(pc.FirstName, pc.LastName)
		if key == "" {
			continue
		}
		g := lookup(key)
		g.NewContacts = append(g.NewContacts, pc)
	}

	var groups []model.SameNameGroup
	for _, key := range order {
		if g := byName[key]; g.Size() > 1 {
			groups = append(groups, *g)
		}
	}
	return groups
}
