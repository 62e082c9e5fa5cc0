package http

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"
)

// Server envuelve http.Server con apagado controlado.
type Server struct {
	Addr            string
	Handler         http.Handler
	ShutdownTimeout time.Duration
}

func NewServer(addr string, handler http.Handler) *Server {
	return &Server{
		Addr:            addr,
		Handler:         handler,
		ShutdownTimeout: 10 * time.Second,
	}
}

// Run sirve hasta que ctx se cancele y después drena conexiones vivas
// dentro del ShutdownTimeout.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.Addr,
		Handler:           s.Handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf(`{"level":"info","msg":"http_listen","addr":"%s"}`, s.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shCtx, cancel := context.WithTimeout(context.Background(), s.ShutdownTimeout)
	defer cancel()
	log.Printf(`{"level":"info","msg":"http_shutdown"}`)
	if err := srv.Shutdown(shCtx); err != nil {
		return err
	}
	return <-errCh
}
