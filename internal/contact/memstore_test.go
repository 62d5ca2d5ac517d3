package contact

import (
	"context"
	"errors"

	"github.com/sells-group/contacts-cli/internal/model"
)

var errMemNotFound = errors.New("contact not found")

// memStore is an in-memory Store for engine tests. Hooks inject failures at
// the per-record boundaries the engine must survive.
type memStore struct {
	nextID   int64
	contacts map[int64]*model.StoredContact
	order    []int64
	tags     map[int64]int

	createHook func(c *model.StoredContact) error
	mutateHook func(id int64) error
	deleteHook func(id int64) error

	creates int
	mutates int
	deletes int
}

func newMemStore() *memStore {
	return &memStore{
		contacts: make(map[int64]*model.StoredContact),
		tags:     make(map[int64]int),
	}
}

func (m *memStore) seed(c model.StoredContact) *model.StoredContact {
	m.nextID++
	c.ID = m.nextID
	m.contacts[c.ID] = &c
	m.order = append(m.order, c.ID)
	return &c
}

func (m *memStore) FindByEmails(_ context.Context, emails []string) ([]model.StoredContact, error) {
	want := make(map[string]bool, len(emails))
	for _, e := range emails {
		want[normalizeEmail(e)] = true
	}
	var out []model.StoredContact
	for _, id := range m.order {
		c := m.contacts[id]
		if want[normalizeEmail(c.PrimaryEmail)] {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (m *memStore) FindAll(_ context.Context) ([]model.StoredContact, error) {
	out := make([]model.StoredContact, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, *m.contacts[id])
	}
	return out, nil
}

func (m *memStore) GetContact(_ context.Context, id int64) (*model.StoredContact, error) {
	c, ok := m.contacts[id]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (m *memStore) CreateContact(_ context.Context, c *model.StoredContact) error {
	if m.createHook != nil {
		if err := m.createHook(c); err != nil {
			return err
		}
	}
	m.creates++
	m.nextID++
	c.ID = m.nextID
	cp := *c
	m.contacts[c.ID] = &cp
	m.order = append(m.order, c.ID)
	return nil
}

func (m *memStore) MutateContact(_ context.Context, id int64, fn func(c *model.StoredContact, tagCount int) error) error {
	if m.mutateHook != nil {
		if err := m.mutateHook(id); err != nil {
			return err
		}
	}
	c, ok := m.contacts[id]
	if !ok {
		return errMemNotFound
	}
	cp := *c
	if err := fn(&cp, m.tags[id]); err != nil {
		return err
	}
	m.mutates++
	m.contacts[id] = &cp
	return nil
}

func (m *memStore) DeleteContact(_ context.Context, id int64) error {
	if m.deleteHook != nil {
		if err := m.deleteHook(id); err != nil {
			return err
		}
	}
	if _, ok := m.contacts[id]; !ok {
		return errMemNotFound
	}
	m.deletes++
	delete(m.contacts, id)
	for i, oid := range m.order {
		if oid == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return nil
}

func (m *memStore) CountTags(_ context.Context, id int64) (int, error) {
	return m.tags[id], nil
}

func (m *memStore) AddTag(_ context.Context, id int64, _ string) error {
	m.tags[id]++
	return nil
}

func (m *memStore) Migrate(context.Context) error { return nil }
func (m *memStore) Close() error                  { return nil }
