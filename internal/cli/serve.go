package cli

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/aretw0/sharewalk"
	sharehttp "github.com/aretw0/sharewalk/pkg/adapters/http"
)

// Serve runs the status server until ctx is done.
func Serve(ctx context.Context, app *App, addr string) error {
	srv := &sharehttp.Server{
		Scanner:  app.Scanner,
		Gatherer: app.Metrics.Registry(),
		Budget:   app.Config.Budget,
		Logger:   app.Logger,
		OnInvoke: func(res *sharewalk.Result, elapsed time.Duration, err error) {
			app.observe(res, elapsed, err)
		},
	}
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           sharehttp.NewHandler(srv),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		app.Logger.Info("Status server listening", "addr", addr)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
