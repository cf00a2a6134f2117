package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/MimeLyc/poe-dubber/internal/dub"
	"github.com/gorilla/mux"
)

// multipart parts beyond this are spooled to temporary files
const defaultMaxMemory = 32 << 20

// Dubber runs one dubbing job
type Dubber interface {
	Run(ctx context.Context, req dub.Request) (dub.Result, error)
}

type Server struct {
	dubber    Dubber
	accessKey string
	maxMemory int64

	router *mux.Router
	server *http.Server
}

type Option func(*Server)

// WithMaxMemory sets how much of a multipart upload is held in memory while parsing
func WithMaxMemory(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxMemory = n
		}
	}
}

func NewServer(dubber Dubber, accessKey string, opts ...Option) *Server {
	s := &Server{
		dubber:    dubber,
		accessKey: accessKey,
		maxMemory: defaultMaxMemory,
		router:    mux.NewRouter(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.routes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) ListenAndServe(addr string) error {
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *Server) routes() {
	s.router.Use(logRequests)

	s.router.Handle("/poe-dub", s.requireAccessKey(http.HandlerFunc(s.handleDub))).Methods(http.MethodPost)
	s.router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)

	s.router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "Method Not Allowed")
	})
	s.router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "Not Found")
	})
}
