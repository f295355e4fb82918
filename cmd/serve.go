package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/callaudit/internal/analyzer"
	"github.com/sells-group/callaudit/internal/model"
	"github.com/sells-group/callaudit/internal/transcript"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the analysis API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		r := buildRouter(env)

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: r,
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			srv.Shutdown(ctx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func buildRouter(env *env) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "Authorization"},
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// Returns the stored analysis for a session, if any.
	r.Get("/sessions/{sessionID}/analysis", func(w http.ResponseWriter, r *http.Request) {
		if env.Store == nil {
			writeError(w, http.StatusServiceUnavailable, "no store configured")
			return
		}
		sessionID := chi.URLParam(r, "sessionID")

		analysis, err := env.Store.LatestAnalysis(r.Context(), sessionID, cfg.Pipeline.CacheTTL())
		if err != nil {
			zap.L().Error("serve: load analysis", zap.String("session_id", sessionID), zap.Error(err))
			writeError(w, http.StatusInternalServerError, "load analysis failed")
			return
		}
		if analysis == nil {
			writeError(w, http.StatusNotFound, "no fresh analysis for session")
			return
		}
		writeJSON(w, http.StatusOK, analysis)
	})

	// Analyzes the posted session telemetry, honoring the time-boxed
	// cache unless ?force=true.
	r.Post("/sessions/{sessionID}/analysis", func(w http.ResponseWriter, r *http.Request) {
		sessionID := chi.URLParam(r, "sessionID")

		var body struct {
			Turns        []model.ConversationTurn `json:"turns"`
			Observations []model.Observation      `json:"tool_calls"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		session := transcript.New(sessionID, body.Turns, body.Observations)

		force := r.URL.Query().Get("force") == "true"
		analysis, err := env.Analyzer.Analyze(r.Context(), session, analyzer.Options{Force: force})
		if err != nil {
			zap.L().Error("serve: analyze", zap.String("session_id", sessionID), zap.Error(err))
			writeError(w, http.StatusInternalServerError, "analysis failed")
			return
		}
		writeJSON(w, http.StatusOK, analysis)
	})

	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
