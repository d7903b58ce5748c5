package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
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

	"github.com/sells-group/lead-agent/internal/model"
	"github.com/sells-group/lead-agent/internal/report"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve a read-only JSON API over the leads and reports",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		reports := report.NewFileStore(cfg.ReportPath(), cfg.Report.MaxReports, logger)
		router := buildRouter(st.Load, reports.Last, logger)

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}
		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		}

		go func() {
			<-ctx.Done()
			logger.Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()

		logger.Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return eris.Wrap(err, "server listen")
		}
		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}

type (
	leadLoader   func(ctx context.Context) ([]model.Lead, error)
	reportLoader func(n int) ([]model.DailyReport, error)
)

// buildRouter returns the read-only API. Every request reads the stores
// fresh so the API reflects the latest saved cycle.
func buildRouter(loadLeads leadLoader, loadReports reportLoader, log *zap.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(log))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Get("/leads", func(w http.ResponseWriter, req *http.Request) {
		filter, err := filterFromQuery(req)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		leads, err := loadLeads(req.Context())
		if err != nil {
			log.Error("serve: load leads", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "failed to load leads")
			return
		}
		writeJSON(w, http.StatusOK, filter.apply(leads))
	})

	r.Get("/leads/stats", func(w http.ResponseWriter, req *http.Request) {
		leads, err := loadLeads(req.Context())
		if err != nil {
			log.Error("serve: load leads", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "failed to load leads")
			return
		}
		writeJSON(w, http.StatusOK, computeLeadStats(leads))
	})

	r.Get("/reports", func(w http.ResponseWriter, req *http.Request) {
		last := 0
		if v := req.URL.Query().Get("last"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				writeError(w, http.StatusBadRequest, "last must be a non-negative integer")
				return
			}
			last = n
		}
		reports, err := loadReports(last)
		if err != nil {
			log.Error("serve: load reports", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "failed to load reports")
			return
		}
		writeJSON(w, http.StatusOK, reports)
	})

	return r
}

func filterFromQuery(req *http.Request) (leadFilter, error) {
	q := req.URL.Query()
	st, err := parseStatus(q.Get("status"))
	if err != nil {
		return leadFilter{}, err
	}
	f := leadFilter{Status: st}
	if v := q.Get("min_score"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return leadFilter{}, eris.Errorf("invalid min_score %q", v)
		}
		f.MinScore = n
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return leadFilter{}, eris.Errorf("invalid limit %q", v)
		}
		f.Limit = n
	}
	return f, nil
}

// leadStats is the /leads/stats payload.
type leadStats struct {
	Total        int                            `json:"total"`
	New          int                            `json:"new"`
	Contacted    int                            `json:"contacted"`
	HighPriority int                            `json:"high_priority"`
	AvgScore     float64                        `json:"avg_score"`
	ByPlatform   map[string]model.PlatformStats `json:"by_platform"`
}

func computeLeadStats(leads []model.Lead) leadStats {
	s := leadStats{Total: len(leads), ByPlatform: map[string]model.PlatformStats{}}
	sums := map[string]int{}
	total := 0
	for _, l := range leads {
		if l.IsNew() {
			s.New++
		} else {
			s.Contacted++
		}
		if l.Score >= report.HighPriorityScore {
			s.HighPriority++
		}
		total += l.Score

		p := string(l.Platform)
		ps := s.ByPlatform[p]
		ps.Count++
		s.ByPlatform[p] = ps
		sums[p] += l.Score
	}
	if s.Total > 0 {
		s.AvgScore = roundTenth(float64(total) / float64(s.Total))
	}
	for p, ps := range s.ByPlatform {
		ps.AvgScore = roundTenth(float64(sums[p]) / float64(ps.Count))
		s.ByPlatform[p] = ps
	}
	return s
}

func roundTenth(f float64) float64 {
	return math.Round(f*10) / 10
}

func requestLogger(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			log.Debug("http request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())),
			)
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
