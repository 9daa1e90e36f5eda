package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/fwojciec/clarifyr"
	"github.com/google/uuid"
	"github.com/rs/cors"
	"golang.org/x/sync/errgroup"
)

// ShutdownTimeout is the time given for outstanding requests to finish before shutdown.
const ShutdownTimeout = 10 * time.Second

// MaxRequestBodyBytes caps the size of an explain request body.
const MaxRequestBodyBytes = 1 << 20

// CORSMaxAge is how long, in seconds, browsers may cache a preflight response.
const CORSMaxAge = 600

// Server is the HTTP API server for clarifyr.
type Server struct {
	ln      net.Listener
	server  *http.Server
	router  *http.ServeMux
	handler http.Handler

	// Bind address for the server's listener.
	Addr string

	// Services used by the HTTP routes.
	ExplainService  clarifyr.ExplainService
	IdentityService clarifyr.IdentityService

	// Logger receives request logs. Defaults to slog.Default().
	Logger *slog.Logger
}

// NewServer returns a new instance of Server.
func NewServer() *Server {
	s := &Server{
		server: &http.Server{
			ReadHeaderTimeout: 10 * time.Second,
		},
		router: http.NewServeMux(),
	}

	s.router.HandleFunc("GET /{$}", s.handleIndex)
	s.router.HandleFunc("GET /healthz", s.handleHealth)
	s.router.HandleFunc("POST /api/explain", s.handleExplain)

	// Any origin may call the API; requests are authorized by bearer token.
	s.handler = cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         CORSMaxAge,
	}).Handler(s.router)

	s.server.Handler = s
	return s
}

// Open begins listening on the bind address.
func (s *Server) Open() (err error) {
	if s.ln, err = net.Listen("tcp", s.Addr); err != nil {
		return err
	}
	return nil
}

// URL returns the base URL of the running server.
func (s *Server) URL() string {
	if s.ln == nil {
		return ""
	}
	return "http://" + s.ln.Addr().String()
}

// Serve handles requests on the opened listener until ctx is canceled,
// then shuts down gracefully.
func (s *Server) Serve(ctx context.Context) error {
	if s.ln == nil {
		return errors.New("server not open")
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := s.server.Serve(s.ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		return s.Close()
	})
	return g.Wait()
}

// Close gracefully shuts down the server.
func (s *Server) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	return s.server.Shutdown(ctx)
}

// ServeHTTP assigns a request ID, logs the request and hands it to the
// CORS-wrapped router.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	begin := time.Now()

	requestID := uuid.NewString()
	r = r.WithContext(clarifyr.NewContextWithRequestID(r.Context(), requestID))
	w.Header().Set("X-Request-ID", requestID)

	sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
	defer func() {
		s.logger().InfoContext(r.Context(), "http request",
			"request_id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"status", sw.status,
			"duration", time.Since(begin),
		)
	}()

	s.handler.ServeHTTP(sw, r)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, "clarifyr is running\n")
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleExplain(w http.ResponseWriter, r *http.Request) {
	identity, err := s.authenticate(r)
	if err != nil {
		s.Error(w, r, err)
		return
	}

	var req clarifyr.ExplainRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxRequestBodyBytes)).Decode(&req); err != nil {
		s.Error(w, r, clarifyr.Errorf(clarifyr.EINVALID, "invalid JSON body"))
		return
	}

	result, err := s.ExplainService.Explain(r.Context(), *identity, &req)
	if err != nil {
		s.Error(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// authenticate resolves the bearer token of the request to an identity.
func (s *Server) authenticate(r *http.Request) (*clarifyr.Identity, error) {
	header := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || strings.TrimSpace(token) == "" {
		return nil, clarifyr.Errorf(clarifyr.EUNAUTHORIZED, "Unauthorized: No token provided")
	}

	identity, err := s.IdentityService.Authenticate(r.Context(), strings.TrimSpace(token))
	if err != nil {
		if clarifyr.ErrorCode(err) == clarifyr.EUNAUTHORIZED {
			return nil, clarifyr.WrapError(err, clarifyr.EUNAUTHORIZED, "Unauthorized: Invalid token")
		}
		return nil, err
	}
	return identity, nil
}

// ErrorResponse is the JSON body of every failed request.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// Error writes err to the response as JSON with the status for its code.
// Internal and model failures are logged and reported generically.
func (s *Server) Error(w http.ResponseWriter, r *http.Request, err error) {
	switch code := clarifyr.ErrorCode(err); code {
	case clarifyr.EINVALID:
		writeJSON(w, http.StatusBadRequest, &ErrorResponse{Error: clarifyr.ErrorMessage(err)})
	case clarifyr.EFETCH:
		writeJSON(w, http.StatusBadRequest, &ErrorResponse{
			Error:   "Failed to fetch content from URL",
			Details: clarifyr.ErrorDetails(err),
		})
	case clarifyr.EUNAUTHORIZED:
		writeJSON(w, http.StatusUnauthorized, &ErrorResponse{Error: clarifyr.ErrorMessage(err)})
	default:
		s.logger().ErrorContext(r.Context(), "request failed",
			"request_id", clarifyr.RequestIDFromContext(r.Context()),
			"code", code,
			"err", err,
		)
		writeJSON(w, http.StatusInternalServerError, &ErrorResponse{Error: "Failed to generate explanation"})
	}
}

func (s *Server) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.Default()
	}
	return s.Logger
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// statusWriter records the status code written to a response.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}
