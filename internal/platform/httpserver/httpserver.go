package httpserver

import (
	"context"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"
)

type Server struct {
	HTTP *http.Server
}

// Options configures the server. Zero timeouts take the defaults below.
type Options struct {
	Addr              string
	Router            http.Handler
	ReadHeaderTimeout time.Duration
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
}

func orDefault(d, def time.Duration) time.Duration {
	if d > 0 {
		return d
	}
	return def
}

func New(opts Options) *Server {
	if opts.Router == nil {
		opts.Router = http.NotFoundHandler()
	}
	return &Server{HTTP: &http.Server{
		Addr:              opts.Addr,
		Handler:           opts.Router,
		ReadHeaderTimeout: orDefault(opts.ReadHeaderTimeout, 5*time.Second),
		ReadTimeout:       orDefault(opts.ReadTimeout, 15*time.Second),
		WriteTimeout:      orDefault(opts.WriteTimeout, 30*time.Second),
		IdleTimeout:       orDefault(opts.IdleTimeout, 60*time.Second),
	}}
}

// Start listens on the configured address and blocks until shutdown.
func (s *Server) Start(log *zap.Logger) error {
	lis, err := net.Listen("tcp", s.HTTP.Addr)
	if err != nil {
		return err
	}
	return s.Serve(lis, log)
}

func (s *Server) Serve(lis net.Listener, log *zap.Logger) error {
	log.Info("http server starting", zap.String("addr", lis.Addr().String()))
	return s.HTTP.Serve(lis)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.HTTP.Shutdown(ctx)
}
