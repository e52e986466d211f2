// Package server exposes the dashboard over HTTP.
package server

import (
	"context"
	"html/template"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/deusflow/newslens/internal/article"
	"github.com/deusflow/newslens/internal/dashboard"
	"github.com/deusflow/newslens/internal/filter"
	"github.com/deusflow/newslens/internal/logger"
	"github.com/deusflow/newslens/internal/metrics"
)

type Server struct {
	session *dashboard.Session
	engine  *gin.Engine
	timeout time.Duration
}

// New builds the router. timeout bounds each corpus refresh.
func New(session *dashboard.Session, timeout time.Duration) *Server {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	s := &Server{session: session, engine: gin.New(), timeout: timeout}
	s.engine.Use(gin.Recovery(), requestLog())
	s.engine.SetHTMLTemplate(template.Must(template.New("index").Funcs(templateFuncs).Parse(indexHTML)))

	s.engine.GET("/", s.index)
	s.engine.GET("/api/articles", s.articles)
	s.engine.GET("/api/topics", s.topics)
	s.engine.GET("/api/stats", s.stats)
	s.engine.GET("/health", s.health)
	s.engine.GET("/metrics", gin.WrapH(metrics.Handler()))
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.engine }

// Run serves on addr until ctx is cancelled.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.engine, ReadHeaderTimeout: 10 * time.Second}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	logger.Info("dashboard listening", "addr", addr)

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func requestLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("http request", "method", c.Request.Method, "path", c.Request.URL.Path,
			"status", c.Writer.Status(), "duration", time.Since(start))
	}
}

// load refreshes the session and parses the request's controls.
func (s *Server) load(c *gin.Context) (filter.Spec, bool) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), s.timeout)
	defer cancel()

	if err := s.session.Refresh(ctx); err != nil {
		logger.Error("dashboard refresh failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return filter.Spec{}, false
	}
	defaults, err := s.session.Default()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return filter.Spec{}, false
	}
	spec, err := ParseSpec(c.Request.URL.Query(), defaults)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return filter.Spec{}, false
	}
	return spec, true
}

type pageData struct {
	Rows     article.Corpus
	Options  dashboard.Options
	Spec     filter.Spec
	SortKeys []filter.SortKey
}

func (s *Server) index(c *gin.Context) {
	spec, ok := s.load(c)
	if !ok {
		return
	}
	rows, err := s.session.View(spec)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	opts, err := s.session.Options()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.HTML(http.StatusOK, "index", pageData{
		Rows:     rows,
		Options:  opts,
		Spec:     spec,
		SortKeys: []filter.SortKey{filter.SortDate, filter.SortSentiment, filter.SortBias},
	})
}

func (s *Server) articles(c *gin.Context) {
	spec, ok := s.load(c)
	if !ok {
		return
	}
	rows, err := s.session.View(spec)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(rows), "articles": rows})
}

func (s *Server) topics(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), s.timeout)
	defer cancel()
	if err := s.session.Refresh(ctx); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	topics, err := s.session.Topics()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"topics": topics})
}

func (s *Server) health(c *gin.Context) {
	stats := metrics.Global.GetStats()

	status, code := "ok", http.StatusOK
	snap := s.session.Snapshot()
	if snap == nil {
		status, code = "no data loaded", http.StatusServiceUnavailable
	}

	response := gin.H{
		"status":      status,
		"last_ingest": stats["last_ingest_time"],
		"last_error":  stats["last_error"],
	}
	if snap != nil {
		response["articles"] = len(snap.Corpus)
		response["snapshot"] = snap.Hash
		response["loaded_at"] = snap.LoadedAt.Format(time.RFC3339)
	}
	c.JSON(code, response)
}

func (s *Server) stats(c *gin.Context) {
	stats := metrics.Global.GetStats()
	stats["memo"] = s.session.MemoStats()
	c.JSON(http.StatusOK, stats)
}
