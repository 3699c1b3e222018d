package api

import (
	"context"
	"html/template"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lox/weatherwidget/internal/assets"
	"github.com/lox/weatherwidget/internal/imagegen"
	"github.com/lox/weatherwidget/internal/store"
	"github.com/lox/weatherwidget/internal/units"
	"github.com/lox/weatherwidget/internal/widget"
)

// Deps is everything the server needs. Store and Assets may be nil; the lookup log
// and image routes then report themselves unavailable.
type Deps struct {
	Fetcher      widget.Fetcher
	Store        *store.Store
	Assets       *assets.Cache
	Missing      []string
	BaseUnit     units.Unit
	FetchTimeout time.Duration
	SessionTTL   time.Duration
	CardTTL      time.Duration
	Clock        clockwork.Clock
	Port         int
}

type Server struct {
	deps     Deps
	tmpl     *template.Template
	sessions *sessions
	cards    *imagegen.CardCache
}

func NewServer(deps Deps) *Server {
	if deps.Clock == nil {
		deps.Clock = clockwork.NewRealClock()
	}
	if deps.SessionTTL <= 0 {
		deps.SessionTTL = 30 * time.Minute
	}
	if deps.CardTTL <= 0 {
		deps.CardTTL = 5 * time.Minute
	}
	if deps.Assets == nil {
		deps.Assets = assets.NewCache()
	}

	s := &Server{
		deps:  deps,
		tmpl:  newTemplates(),
		cards: imagegen.NewCardCache(deps.CardTTL, deps.Clock),
	}
	s.sessions = newSessions(deps.SessionTTL, deps.Clock, s.newWidget)
	return s
}

func (s *Server) newWidget(sessionID string) *widget.Widget {
	opts := widget.Options{
		BaseUnit: s.deps.BaseUnit,
		Timeout:  s.deps.FetchTimeout,
		Session:  sessionID,
		Clock:    s.deps.Clock,
	}
	if s.deps.Store != nil {
		opts.Recorder = s.deps.Store
	}
	return widget.New(s.deps.Fetcher, opts)
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("POST /locate", s.handleLocate)
	mux.HandleFunc("POST /search", s.handleSearch)
	mux.HandleFunc("POST /toggle", s.handleToggle)
	mux.HandleFunc("GET /api/display", s.handleAPIDisplay)
	mux.HandleFunc("GET /api/lookups", s.handleAPILookups)
	mux.HandleFunc("GET /card.png", s.handleCard)
	mux.HandleFunc("GET /images/{path...}", s.handleImage)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.Handle("GET /metrics", promhttp.Handler())
	return mux
}

func (s *Server) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:              ":" + strconv.Itoa(s.deps.Port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go s.sessions.sweepLoop(ctx)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	log.Printf("api: listening on %s", server.Addr)
	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}
