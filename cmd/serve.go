package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/contacts-cli/internal/config"
	"github.com/sells-group/contacts-cli/internal/contact"
	"github.com/sells-group/contacts-cli/internal/model"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the review/commit HTTP server",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := newStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		score, err := newScoreFunc()
		if err != nil {
			return err
		}
		engine := contact.NewEngine(st, score)
		r := newRouter(st, engine, cfg.Server, cfg.Import.MaxBatchSize)

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           r,
			ReadHeaderTimeout: 10 * time.Second,
		}

		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

// newRouter wires the review/commit HTTP endpoints over a store and engine.
func newRouter(st contact.Store, engine *contact.Engine, serverCfg config.ServerConfig, maxBatchSize int) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: serverCfg.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))
	r.Use(rateLimit(rate.NewLimiter(
		rate.Limit(serverCfg.RateLimitPerSec), serverCfg.RateLimitBurst)))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Post("/import/analyze", func(w http.ResponseWriter, req *http.Request) {
		var body struct {
			Contacts []model.ParsedContact `json:"contacts"`
		}
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			respondError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if maxBatchSize > 0 && len(body.Contacts) > maxBatchSize {
			respondError(w, http.StatusRequestEntityTooLarge, "batch exceeds max_batch_size")
			return
		}

		// API clients have no row index to derive an id from; records they
		// post without one get a uuid so review decisions stay addressable.
		for i := range body.Contacts {
			if body.Contacts[i].TempID == "" {
				body.Contacts[i].TempID = uuid.New().String()
			}
		}

		newContacts, duplicates, err := contact.DetectDuplicates(req.Context(), st, body.Contacts)
		if err != nil {
			zap.L().Error("serve: analyze failed", zap.Error(err))
			respondError(w, http.StatusInternalServerError, "analyze failed")
			return
		}
		existing, err := st.FindAll(req.Context())
		if err != nil {
			zap.L().Error("serve: analyze failed", zap.Error(err))
			respondError(w, http.StatusInternalServerError, "analyze failed")
			return
		}

		respondJSON(w, http.StatusOK, analysisReport{
			NewContacts:    newContacts,
			Duplicates:     duplicates,
			SameNameGroups: contact.GroupByName(newContacts, existing),
		})
	})

	r.Post("/import/commit", func(w http.ResponseWriter, req *http.Request) {
		var commitReq contact.CommitRequest
		if err := json.NewDecoder(req.Body).Decode(&commitReq); err != nil {
			respondError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		summary, err := engine.Commit(req.Context(), commitReq)
		if err != nil {
			if errors.Is(err, contact.ErrInvalidRequest) {
				respondError(w, http.StatusBadRequest, err.Error())
				return
			}
			zap.L().Error("serve: commit failed", zap.Error(err))
			respondError(w, http.StatusInternalServerError, "commit failed")
			return
		}
		respondJSON(w, http.StatusOK, summary)
	})

	r.Get("/contacts", func(w http.ResponseWriter, req *http.Request) {
		contacts, err := st.FindAll(req.Context())
		if err != nil {
			zap.L().Error("serve: list contacts failed", zap.Error(err))
			respondError(w, http.StatusInternalServerError, "list failed")
			return
		}
		respondJSON(w, http.StatusOK, contacts)
	})

	return r
}

// rateLimit applies a shared token bucket across all requests.
func rateLimit(limiter *rate.Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				respondError(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]string{"error": msg})
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
