// Command runboxd runs the runbox pipeline API server, grounded on the
// teacher's cmd/main.go graceful-shutdown pattern but scoped to this
// domain's single HTTP surface (no bootstrap-then-ready router, no
// database, no AI subsystems).
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/burenotti/runbox/internal/apiserver"
	"github.com/burenotti/runbox/internal/auth"
	"github.com/burenotti/runbox/internal/config"
	"github.com/burenotti/runbox/internal/dockerengine"
	"github.com/burenotti/runbox/internal/logging"
	"github.com/burenotti/runbox/internal/pipeline"
	"github.com/burenotti/runbox/internal/pipeline/loader"
	"github.com/burenotti/runbox/internal/sandbox"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "list-stages" {
		listStages()
		return
	}

	cfg := config.Load()
	logging.Init()
	defer logging.Sync()

	engine, err := dockerengine.New(cfg.DockerHost)
	if err != nil {
		logging.S().Fatalw("failed to connect to engine", "error", err)
	}

	tokens := auth.NewTokenService(cfg.JWTSecret, "runboxd", 24*time.Hour)

	var pkgCache *sandbox.PackageCache
	if cfg.PackageCacheEnabled {
		pkgCache = sandbox.NewPackageCache(true, nil)
	}

	timeouts := pipeline.Timeouts{
		CreateContainer: cfg.CreateContainerTimeout,
		VolumeOpen:      cfg.VolumeOpenTimeout,
	}
	srv := apiserver.NewServer(engine, tokens, pkgCache, timeouts)
	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		logging.S().Infow("starting runboxd", "addr", cfg.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrors <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		logging.S().Fatalw("server error", "error", err)
	case <-quit:
		logging.S().Infow("shutting down runboxd")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		logging.S().Errorw("forced shutdown", "error", err)
	}
}

// listStages prints the stage kinds known to the default registry
// (SUPPLEMENTED FEATURES: stage-kind registry discovery CLI).
func listStages() {
	reg := loader.DefaultRegistry()
	kinds := make([]string, 0, len(reg))
	for kind := range reg {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)
	for _, k := range kinds {
		fmt.Println(k)
	}
}
