package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fairwork-tools/holidaycheck/internal/model"
	"github.com/fairwork-tools/holidaycheck/internal/resolve"
)

var servePort int

// resolver is the lookup surface the HTTP layer needs.
type resolver interface {
	Resolve(ctx context.Context, req resolve.Request) *model.ResolutionResult
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the holiday resolution HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initPipeline(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           newRouter(env.Service),
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
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}
		return nil
	},
}

// newRouter builds the API routes.
func newRouter(svc resolver) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
	}))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})

	r.Get("/v1/resolve", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		address := q.Get("address")
		if address == "" {
			httpError(w, http.StatusBadRequest, "address is required")
			return
		}

		req := resolve.Request{
			Address:     address,
			PeriodStart: q.Get("start"),
			PeriodEnd:   q.Get("end"),
		}
		if (req.PeriodStart == "") != (req.PeriodEnd == "") {
			httpError(w, http.StatusBadRequest, "start and end must be given together")
			return
		}
		if y := q.Get("year"); y != "" {
			year, err := strconv.Atoi(y)
			if err != nil {
				httpError(w, http.StatusBadRequest, "invalid year")
				return
			}
			req.Year = year
		}
		if s := q.Get("state"); s != "" {
			state, err := model.ParseState(s)
			if err != nil {
				httpError(w, http.StatusBadRequest, "invalid state")
				return
			}
			req.StateHint = state
		}

		res := svc.Resolve(r.Context(), req)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(res)
	})

	return r
}

func httpError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
