package main

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/contacts-cli/internal/contact"
	"github.com/sells-group/contacts-cli/internal/db"
	"github.com/sells-group/contacts-cli/internal/scorer"
	"github.com/sells-group/contacts-cli/internal/store"
)

// newStore opens the configured contact store.
func newStore(ctx context.Context) (contact.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite", "":
		st, err := store.NewSQLite(cfg.Store.SQLitePath)
		if err != nil {
			return nil, err
		}
		return st, nil
	case "postgres":
		if cfg.Store.DatabaseURL == "" {
			return nil, eris.New("store: database_url is required for postgres (CONTACTS_STORE_DATABASE_URL)")
		}
		pool, err := db.NewPool(ctx, cfg.Store.DatabaseURL)
		if err != nil {
			return nil, err
		}
		return store.NewPostgres(pool), nil
	default:
		return nil, eris.Errorf("store: unknown driver %q", cfg.Store.Driver)
	}
}

// newScoreFunc loads the configured weight table, falling back to the
// built-in one when no path is set.
func newScoreFunc() (contact.ScoreFunc, error) {
	if cfg.Scorer.WeightsPath == "" {
		return scorer.Score, nil
	}
	w, err := scorer.LoadWeights(cfg.Scorer.WeightsPath)
	if err != nil {
		return nil, err
	}
	return w.Score, nil
}
