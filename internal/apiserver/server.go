// Package apiserver is the optional HTTP surface for submitting and
// driving pipelines remotely (SPEC_FULL.md DOMAIN STACK), grounded on the
// teacher's gin router/middleware-chain conventions but scoped to this
// domain: no accounts, no billing, bearer API tokens only.
package apiserver

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	promhttp "github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/burenotti/runbox/internal/auth"
	"github.com/burenotti/runbox/internal/dockerengine"
	"github.com/burenotti/runbox/internal/logging"
	"github.com/burenotti/runbox/internal/pipeline"
	"github.com/burenotti/runbox/internal/pipeline/loader"
	"github.com/burenotti/runbox/internal/sandbox"
)

// Server holds the process-wide state the HTTP surface needs: the engine
// adapter, the stage-kind registry, token/rate-limit services, and the
// in-memory table of submitted pipelines (no persistence — a Non-goal).
type Server struct {
	engine   dockerengine.Engine
	loader   *loader.Loader
	tokens   *auth.TokenService
	limiters *rateLimiters
	pkgCache *sandbox.PackageCache
	timeouts pipeline.Timeouts

	mu        sync.Mutex
	pipelines map[string]*pipeline.Pipeline
}

// NewServer wires a Server from its dependencies. pkgCache may be nil.
func NewServer(engine dockerengine.Engine, tokens *auth.TokenService, pkgCache *sandbox.PackageCache, timeouts pipeline.Timeouts) *Server {
	return &Server{
		engine:    engine,
		loader:    loader.New(nil),
		tokens:    tokens,
		limiters:  newRateLimiters(2, 5),
		pkgCache:  pkgCache,
		timeouts:  timeouts,
		pipelines: make(map[string]*pipeline.Pipeline),
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Router builds the gin engine: a public health/metrics group and an
// authenticated, rate-limited /v1 group.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := r.Group("/v1")
	v1.Use(requireAuth(s.tokens), rateLimit(s.limiters))
	{
		v1.POST("/pipelines", s.handleSubmit)
		v1.GET("/pipelines/:id", s.handleStatus)
		v1.POST("/pipelines/:id/groups/:name/execute", s.handleExecuteGroup)
		v1.POST("/pipelines/:id/finalize", s.handleFinalize)
		v1.GET("/pipelines/:id/groups/:name/attach", s.handleAttach)
	}

	return r
}

// handleSubmit parses a declarative pipeline document (JSON by default,
// YAML when Content-Type says so), wires the engine and package cache,
// stores it under a fresh id, and returns that id.
func (s *Server) handleSubmit(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read body"})
		return
	}

	var p *pipeline.Pipeline
	if c.ContentType() == "application/yaml" || c.ContentType() == "text/yaml" {
		p, err = s.loader.LoadYAML(body)
	} else {
		p, err = s.loader.LoadJSON(body)
	}
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	p.WithExecutor(s.engine).WithPackageCache(s.pkgCache).WithTimeouts(s.timeouts)

	id := uuid.New().String()
	s.mu.Lock()
	s.pipelines[id] = p
	s.mu.Unlock()

	c.JSON(http.StatusCreated, gin.H{"id": id})
}

func (s *Server) lookup(c *gin.Context) (*pipeline.Pipeline, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.pipelines[c.Param("id")]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "pipeline not found"})
	}
	return p, ok
}

func (s *Server) handleStatus(c *gin.Context) {
	p, ok := s.lookup(c)
	if !ok {
		return
	}
	statuses := make(map[string]pipeline.GroupStatus)
	for _, g := range p.Groups() {
		statuses[g.Name] = g.Status
	}
	c.JSON(http.StatusOK, gin.H{"meta": p.Meta(), "groups": statuses})
}

func (s *Server) handleExecuteGroup(c *gin.Context) {
	p, ok := s.lookup(c)
	if !ok {
		return
	}
	if err := p.ExecuteGroup(c.Request.Context(), c.Param("name")); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "done"})
}

func (s *Server) handleFinalize(c *gin.Context) {
	p, ok := s.lookup(c)
	if !ok {
		return
	}
	if err := p.Finalize(c.Request.Context()); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "finalized"})
}

// handleAttach upgrades to a websocket, wires a wsObserver into the
// pipeline, then executes the named group so its output streams live
// (§4.7: "attach implies an observer must be set").
func (s *Server) handleAttach(c *gin.Context) {
	p, ok := s.lookup(c)
	if !ok {
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logging.S().Warnw("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	obs := newWSObserver(conn)
	p.WithObserver(obs)

	if err := p.ExecuteGroup(c.Request.Context(), c.Param("name")); err != nil {
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"`+err.Error()+`"}`))
	}
}
