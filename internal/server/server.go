package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/elevatebox/elevatebox"
	"github.com/elevatebox/elevatebox/internal/assets"
	"github.com/elevatebox/elevatebox/internal/cache"
	"github.com/elevatebox/elevatebox/internal/config"
	"github.com/elevatebox/elevatebox/internal/island"
)

// Rendered pages are kept this long unless a re-discovery drops them sooner.
const pageCacheTTL = 5 * time.Minute

// Route represents a discovered page route.
type Route struct {
	Pattern  string           // URL pattern (e.g., "/contact")
	FilePath string           // Relative file path (e.g., "contact.md")
	Page     *elevatebox.Page // Parsed page
}

// NavItem is one entry of the site navigation.
type NavItem struct {
	Path   string
	Title  string
	Active bool
}

// PageData is the value rendered by the page layouts.
type PageData struct {
	SiteTitle       string
	SiteDescription string
	Page            *elevatebox.Page
	Nav             []NavItem
	Content         template.HTML
	Watch           bool
	Path            string
}

// Server serves the content pages and the island websocket.
type Server struct {
	rootDir    string
	contentDir string
	config     *config.Config
	islands    *island.Registry
	layouts    *template.Template
	log        *zap.Logger

	mu     sync.RWMutex
	routes []*Route
	pages  *cache.MemoryCache

	connMu   sync.RWMutex
	sessions map[*session]struct{}
	sessWG   sync.WaitGroup

	watcher *Watcher
	handler http.Handler

	stopRateLimit context.CancelFunc
	rateLimitDone <-chan struct{}
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.log = l
		}
	}
}

// New creates a server for the site in rootDir. A nil registry mounts the
// default islands with in-memory storage. Call Discover before serving and
// Close when done.
func New(rootDir string, cfg *config.Config, islands *island.Registry, opts ...Option) (*Server, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	s := &Server{
		rootDir:    rootDir,
		contentDir: cfg.ContentPath(rootDir),
		config:     cfg,
		islands:    islands,
		log:        zap.NewNop(),
		routes:     make([]*Route, 0),
		sessions:   make(map[*session]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.islands == nil {
		reg, err := island.NewDefaultRegistry(island.Deps{Contact: cfg.Contact, Onboarding: cfg.Onboarding, Logger: s.log})
		if err != nil {
			return nil, err
		}
		s.islands = reg
	}

	layouts, err := assets.Layouts()
	if err != nil {
		return nil, fmt.Errorf("failed to parse layouts: %w", err)
	}
	s.layouts = layouts
	s.pages = cache.NewMemoryCache(time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	limit, done := RateLimitMiddleware(ctx, cfg.RateLimit.GetRPS(), cfg.RateLimit.GetBurst(), 0, s.log)
	s.stopRateLimit = cancel
	s.rateLimitDone = done

	mux := http.NewServeMux()
	mux.Handle("/ws", limit(http.HandlerFunc(s.serveWebSocket)))
	mux.Handle("/assets/", http.StripPrefix("/assets/", http.FileServer(http.FS(assets.ClientFS()))))
	mux.HandleFunc("/healthz", s.serveHealth)
	mux.HandleFunc("/", s.servePage)

	s.handler = RequestLogMiddleware(SecurityHeadersMiddleware()(WithCompression(mux)))
	return s, nil
}

// DiscoverPages scans dir for .md files. Pages that fail to parse are left
// out and their errors joined into the returned error.
func DiscoverPages(dir string) ([]*Route, error) {
	var (
		routes []*Route
		errs   []error
	)
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			name := d.Name()
			if path != dir && (strings.HasPrefix(name, "_") || strings.HasPrefix(name, ".")) {
				return filepath.SkipDir
			}
			return nil
		}
		if filepath.Ext(path) != ".md" || strings.HasPrefix(d.Name(), "_") {
			return nil
		}

		relPath, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		page, err := elevatebox.ParseFile(path)
		if err != nil {
			errs = append(errs, err)
			return nil
		}
		routes = append(routes, &Route{
			Pattern:  mdToPattern(relPath),
			FilePath: relPath,
			Page:     page,
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk directory: %w", err)
	}
	sortRoutes(routes)
	return routes, errors.Join(errs...)
}

// Discover scans the content directory and replaces the routes. Pages with
// parse errors are logged and skipped.
func (s *Server) Discover() error {
	routes, err := DiscoverPages(s.contentDir)
	if routes == nil && err != nil {
		var perr *elevatebox.ParseError
		if !errors.As(err, &perr) {
			return err
		}
	}
	if err != nil {
		s.log.Warn("some pages failed to parse", zap.Error(err))
	}

	s.mu.Lock()
	s.routes = routes
	s.mu.Unlock()
	s.pages.InvalidateAll()

	s.log.Info("pages discovered", zap.String("dir", s.contentDir), zap.Int("count", len(routes)))
	return nil
}

// Routes returns the discovered routes.
func (s *Server) Routes() []*Route {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.routes
}

func (s *Server) route(pattern string) *Route {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.routes {
		if r.Pattern == pattern {
			return r
		}
	}
	return nil
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

func (s *Server) serveHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status": "ok",
		"pages":  len(s.Routes()),
	})
}

func (s *Server) servePage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if body, ok := s.pages.Get(r.URL.Path); ok {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write(body)
		return
	}

	route := s.route(r.URL.Path)
	if route == nil {
		s.serveNotFound(w, r)
		return
	}

	layout := route.Page.Layout
	if layout == "" || s.layouts.Lookup(layout) == nil {
		layout = "default"
	}

	var buf bytes.Buffer
	if err := s.layouts.ExecuteTemplate(&buf, layout, s.pageData(route, r.URL.Path)); err != nil {
		s.log.Error("failed to render page", zap.String("path", r.URL.Path), zap.Error(err))
		http.Error(w, "failed to render page", http.StatusInternalServerError)
		return
	}
	if !s.config.Server.Debug {
		s.pages.Set(r.URL.Path, buf.Bytes(), pageCacheTTL)
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) serveNotFound(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	err := s.layouts.ExecuteTemplate(&buf, "notfound", PageData{SiteTitle: s.config.Title, Path: r.URL.Path})
	if err != nil {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusNotFound)
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) pageData(route *Route, current string) PageData {
	return PageData{
		SiteTitle:       s.config.Title,
		SiteDescription: s.config.Description,
		Page:            route.Page,
		Nav:             s.nav(current),
		// Page HTML is sanitized when the page is parsed.
		Content: template.HTML(route.Page.HTML),
		Watch:   s.watcher != nil,
		Path:    current,
	}
}

// nav lists the pages ordered by nav_order, then by route order.
func (s *Server) nav(current string) []NavItem {
	routes := s.Routes()
	ordered := make([]*Route, len(routes))
	copy(ordered, routes)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Page.NavOrder < ordered[j].Page.NavOrder
	})

	items := make([]NavItem, 0, len(ordered))
	for _, r := range ordered {
		items = append(items, NavItem{Path: r.Pattern, Title: r.Page.Title, Active: r.Pattern == current})
	}
	return items
}

// mdToPattern converts a markdown file path to a URL pattern.
// Examples:
//   - "index.md" → "/"
//   - "contact.md" → "/contact"
//   - "careers/apply.md" → "/careers/apply"
//   - "careers/index.md" → "/careers/"
func mdToPattern(relPath string) string {
	path := filepath.ToSlash(strings.TrimSuffix(relPath, ".md"))
	if path == "index" {
		return "/"
	}
	if strings.HasSuffix(path, "/index") {
		return "/" + strings.TrimSuffix(path, "index")
	}
	return "/" + path
}

// sortRoutes puts "/" first, then directory indexes, then the rest
// alphabetically.
func sortRoutes(routes []*Route) {
	rank := func(r *Route) int {
		switch {
		case r.Pattern == "/":
			return 0
		case strings.HasSuffix(r.Pattern, "/"):
			return 1
		default:
			return 2
		}
	}
	sort.SliceStable(routes, func(i, j int) bool {
		ri, rj := rank(routes[i]), rank(routes[j])
		if ri != rj {
			return ri < rj
		}
		return routes[i].Pattern < routes[j].Pattern
	})
}

// EnableWatch re-discovers pages when markdown files in the content
// directory change and tells connected browsers to reload.
func (s *Server) EnableWatch() error {
	watcher, err := NewWatcher(s.contentDir, func(relPath string) error {
		if err := s.Discover(); err != nil {
			return fmt.Errorf("failed to re-discover pages: %w", err)
		}
		s.BroadcastReload(relPath)
		return nil
	}, s.log.Named("watch"))
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}

	s.watcher = watcher
	s.watcher.Start()
	s.pages.InvalidateAll()
	s.log.Info("file watcher started", zap.String("dir", s.contentDir))
	return nil
}

// BroadcastReload sends a reload message to all connected clients.
func (s *Server) BroadcastReload(filePath string) {
	s.connMu.RLock()
	defer s.connMu.RUnlock()

	if len(s.sessions) == 0 {
		return
	}
	s.log.Debug("broadcasting reload", zap.String("file", filePath), zap.Int("sessions", len(s.sessions)))
	for sess := range s.sessions {
		sess.send(serverMessage{Type: "reload", File: filePath})
	}
}

func (s *Server) register(sess *session) {
	s.connMu.Lock()
	s.sessions[sess] = struct{}{}
	n := len(s.sessions)
	s.connMu.Unlock()
	s.log.Debug("session opened", zap.String("remote_addr", sess.remote), zap.Int("active", n))
}

func (s *Server) unregister(sess *session) {
	s.connMu.Lock()
	delete(s.sessions, sess)
	n := len(s.sessions)
	s.connMu.Unlock()
	s.log.Debug("session closed", zap.String("remote_addr", sess.remote), zap.Int("active", n))
}

// SessionCount returns the number of open island sessions.
func (s *Server) SessionCount() int {
	s.connMu.RLock()
	defer s.connMu.RUnlock()
	return len(s.sessions)
}

// Close stops the watcher and the rate limiter and closes open sessions.
func (s *Server) Close() error {
	var err error
	if s.watcher != nil {
		err = s.watcher.Stop()
		s.watcher = nil
	}

	s.connMu.RLock()
	open := make([]*session, 0, len(s.sessions))
	for sess := range s.sessions {
		open = append(open, sess)
	}
	s.connMu.RUnlock()
	for _, sess := range open {
		sess.close()
	}
	s.sessWG.Wait()

	s.stopRateLimit()
	<-s.rateLimitDone
	s.pages.Stop()
	return err
}
