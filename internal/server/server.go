// Package server serves reports over HTTP.
//
// Routes:
//
//	GET /healthz                   liveness probe, returns "ok"
//	GET /reports/{date}.{format}   renders (or returns the cached) report for date
//
// Only complete days can be requested. With the Strava source, whose club
// feed has no start times, only yesterday can be rendered; other dates are
// answered with 400 INVALID_DATE.
//
// Concurrent requests for the same report share one render.
package server

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/singleflight"

	"github.com/matzehuels/clubreport/pkg/errors"
	"github.com/matzehuels/clubreport/pkg/pipeline"
)

// ReportTTL is how long rendered reports stay cached.
const ReportTTL = 24 * time.Hour

var contentTypes = map[string]string{
	pipeline.FormatPDF:  "application/pdf",
	pipeline.FormatJSON: "application/json",
}

// Server renders reports on demand with a pipeline runner.
type Server struct {
	runner *pipeline.Runner
	base   pipeline.Options
	logger *log.Logger
	now    func() time.Time
	group  singleflight.Group
}

// New returns a server rendering with runner. base supplies everything but
// the date and format of each request.
func New(runner *pipeline.Runner, base pipeline.Options, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	if base.Location == nil {
		base.Location = time.Local
	}
	return &Server{runner: runner, base: base, logger: logger.WithPrefix("http"), now: time.Now}
}

// Handler returns the chi router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Write([]byte("ok"))
	})
	r.Get("/reports/{date}.{format}", s.handleReport)
	return r
}

// ListenAndServe serves on addr until ctx ends, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      2 * time.Minute,
		IdleTimeout:       time.Minute,
		BaseContext:       func(_ net.Listener) context.Context { return ctx },
	}
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !stderrors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	day, err := errors.ValidateDate(chi.URLParam(r, "date"), s.base.Location)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	format := chi.URLParam(r, "format")
	if err := pipeline.ValidateFormat(format); err != nil {
		s.fail(w, r, err)
		return
	}
	if !day.Before(pipeline.Yesterday(s.now(), s.base.Location).AddDate(0, 0, 1)) {
		s.fail(w, r, errors.New(errors.ErrCodeInvalidDate, "report for %s is not complete yet", day.Format(errors.DateLayout)))
		return
	}

	opts := s.base
	opts.Date = day
	opts.Formats = []string{format}
	opts.Logger = s.logger
	if err := opts.ValidateAndSetDefaults(); err != nil {
		s.fail(w, r, err)
		return
	}

	key := s.runner.Keyer.ReportKey(opts.DateString(), format, opts.ReportKeyOpts())
	data, err := s.report(r.Context(), key, opts)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", contentTypes[format])
	w.Header().Set("Content-Disposition", `inline; filename="`+pipeline.FileName(day, format)+`"`)
	w.Write(data)
}

// report returns the cached artifact for key or renders it once for all
// concurrent callers.
func (s *Server) report(ctx context.Context, key string, opts pipeline.Options) ([]byte, error) {
	if data, hit, err := s.runner.Cache.Get(ctx, key); err == nil && hit {
		return data, nil
	}
	v, err, _ := s.group.Do(key, func() (any, error) {
		// The render is shared, so the first caller going away must not
		// abort it for the others.
		ctx := context.WithoutCancel(ctx)
		result, err := s.runner.Execute(ctx, opts)
		if err != nil {
			return nil, err
		}
		a, _ := result.Artifact(opts.Formats[0])
		if err := s.runner.Cache.Set(ctx, key, a.Data, ReportTTL); err != nil {
			s.logger.Warn("cache report", "key", key, "error", err)
		}
		return a.Data, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

// StatusCode maps pipeline errors to HTTP status codes.
func StatusCode(err error) int {
	switch errors.GetCode(err) {
	case errors.ErrCodeInvalidDate, errors.ErrCodeInvalidFormat, errors.ErrCodeInvalidInput:
		return http.StatusBadRequest
	case errors.ErrCodeInvalidGeometry, errors.ErrCodeEmptyReport:
		return http.StatusUnprocessableEntity
	case errors.ErrCodeNotFound:
		return http.StatusNotFound
	case errors.ErrCodeInvalidConfig:
		return http.StatusInternalServerError
	}
	return http.StatusBadGateway
}

type errorBody struct {
	Error string      `json:"error"`
	Code  errors.Code `json:"code,omitempty"`
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusCode(err)
	if status >= 500 {
		s.logger.Error("report failed", "path", r.URL.Path, "request", middleware.GetReqID(r.Context()), "error", err)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(errorBody{Error: errors.UserMessage(err), Code: errors.GetCode(err)})
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug(r.Method+" "+r.URL.Path, "status", ww.Status(), "bytes", ww.BytesWritten(), "duration", time.Since(start))
	})
}
