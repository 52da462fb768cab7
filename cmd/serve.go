package cmd

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/sync/errgroup"
)

// serveMetrics exposes the app's Prometheus registry on addr until ctx ends.
// An empty addr disables the endpoint.
func serveMetrics(ctx context.Context, g *errgroup.Group, a *app, addr string) {
	if addr == "" {
		return
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.GET("/metrics", echo.WrapHandler(a.metrics.Handler()))

	g.Go(func() error {
		err := e.Start(addr)
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return e.Shutdown(shutdownCtx)
	})
	a.logger.Info("serving metrics", "addr", addr)
}
