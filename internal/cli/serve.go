package cli

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/seqrender/seqrender/pkg/buildinfo"
	"github.com/seqrender/seqrender/pkg/errors"
	"github.com/seqrender/seqrender/pkg/normalize"
	"github.com/seqrender/seqrender/pkg/observability"
	"github.com/seqrender/seqrender/pkg/pipeline"
	"github.com/seqrender/seqrender/pkg/render"
	"github.com/seqrender/seqrender/pkg/svgdom"
)

const (
	maxDiagramBytes = 1 << 20
	shutdownTimeout = 10 * time.Second
	headerRequestID = "X-Request-ID"
)

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve an HTTP API that renders diagrams",
		Long: `Serve renders diagrams posted over HTTP.

  POST /render?theme=simple&format=svg   body: diagram source
  GET  /healthz

Requests share one browser page and are rendered one at a time.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = c.cfg.Serve.Addr
			}
			return c.runServe(cmd.Context(), addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default "+defaultServeAddr+")")
	return cmd
}

func (c *CLI) runServe(ctx context.Context, addr string) error {
	opts := pipeline.Options{
		CSS:   c.cfg.Serve.CSS,
		Theme: c.cfg.Serve.Theme,
		PNG:   true,
		SVG:   true,
	}
	if opts.CSS == "" {
		opts.CSS = render.DefaultStylesheet
	}

	renderer, rasterizer, err := c.backend(c.cfg, opts, c.Logger)
	if err != nil {
		return err
	}
	conv := pipeline.NewConverter(opts, renderer, rasterizer, c.Logger)
	defer conv.Close()

	srv := &http.Server{
		Addr:              addr,
		Handler:           newServer(conv, c.Logger).routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	printKeyValue("listening", "http://"+addr)
	printKeyValue("version", buildinfo.Version)

	select {
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return errors.Wrap(errors.ErrCodeInternal, err, "listen %s", addr)
	case <-ctx.Done():
		c.Logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// server renders diagrams for HTTP clients. All conversions share the
// converter's page, so they are serialized by mu.
type server struct {
	conv   *pipeline.Converter
	logger *log.Logger

	mu sync.Mutex
}

func newServer(conv *pipeline.Converter, logger *log.Logger) *server {
	return &server{conv: conv, logger: logger}
}

func (s *server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(s.observe)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Post("/render", s.handleRender)
	return r
}

type healthResponse struct {
	Status string         `json:"status"`
	Build  buildinfo.Info `json:"build"`
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Build: buildinfo.Get()})
}

type errorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

func (s *server) handleRender(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxDiagramBytes))
	if err != nil {
		s.fail(w, r, errors.Wrap(errors.ErrCodeInvalidInput, err, "read body"))
		return
	}
	defer r.Body.Close()

	theme := r.URL.Query().Get("theme")
	if theme == "" {
		theme = s.conv.Options.Theme
	}
	if err := errors.ValidateTheme(theme); err != nil {
		s.fail(w, r, err)
		return
	}

	format := r.URL.Query().Get("format")
	if format == "" {
		format = pipeline.FormatSVG
	}
	if format != pipeline.FormatSVG && format != pipeline.FormatPNG {
		s.fail(w, r, errors.New(errors.ErrCodeInvalidInput, "unsupported format %q", format))
		return
	}

	out, err := s.convert(r.Context(), string(body), theme, format)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	contentType := "image/svg+xml"
	if format == pipeline.FormatPNG {
		contentType = "image/png"
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(out)
}

// convert renders one diagram. The rasterizer may screenshot the page the
// renderer just drew, so both steps run under the same lock.
func (s *server) convert(ctx context.Context, contents, theme, format string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.conv.Normalize(ctx, contents, theme)
	if err != nil {
		return nil, err
	}
	svg := svgdom.Serialize(doc)
	if format == pipeline.FormatSVG {
		return []byte(svg), nil
	}

	if s.conv.Rasterizer == nil {
		return nil, errors.New(errors.ErrCodeInternal, "no rasterizer configured")
	}
	root := doc.DocumentElement()
	if root == nil {
		return nil, errors.New(errors.ErrCodeParse, "rendered svg has no root element")
	}
	width, height, err := normalize.Dimensions(root)
	if err != nil {
		return nil, err
	}
	return s.conv.Rasterizer.Rasterize(ctx, []byte(svg), width, height)
}

func (s *server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("render failed", "err", err, "request_id", w.Header().Get(headerRequestID))
	}
	writeJSON(w, status, errorResponse{
		Error:     errors.UserMessage(err),
		Code:      string(errors.GetCode(err)),
		RequestID: w.Header().Get(headerRequestID),
	})
}

// statusFor maps error codes to HTTP status codes.
func statusFor(err error) int {
	switch errors.GetCode(err) {
	case errors.ErrCodeInvalidInput:
		return http.StatusBadRequest
	case errors.ErrCodeParse, errors.ErrCodeMissingDimension, errors.ErrCodeRender:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// requestID tags every request with an X-Request-ID, generating one when
// the client sent none.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(headerRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(headerRequestID, id)
		next.ServeHTTP(w, r)
	})
}

// observe reports requests to the HTTP hooks and the debug log.
func (s *server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hooks := observability.HTTP()
		hooks.OnRequest(r.Context(), r.Method, r.URL.Path)

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		dur := time.Since(start)
		hooks.OnResponse(r.Context(), r.Method, r.URL.Path, status, dur)
		s.logger.Debug("request", "method", r.Method, "path", r.URL.Path, "status", status, "duration", dur)
	})
}
