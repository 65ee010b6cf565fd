package http

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"net/http"
	"slices"
	"sync"
	"time"

	"connectrpc.com/connect"
	"connectrpc.com/grpchealth"
	"github.com/labstack/echo/v4"
)

const (
	healthPath  = "/healthz"
	metricsPath = "/metrics"
)

// HealthCheck reports whether a dependency can serve requests.
type HealthCheck func(ctx context.Context) error

var _ grpchealth.Checker = (*Server)(nil)

// Server hosts the device's REST handlers, the gateway webhook and the
// operational endpoints on one HTTP server. Health is served both as JSON on
// /healthz and as the standard grpc.health.v1 service.
type Server struct {
	echo    *echo.Echo
	httpSrv *http.Server

	mu     sync.Mutex
	checks map[string]HealthCheck
}

// NewServer returns a new Server.
func NewServer(addr string, logger Logger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(NewEchoRecoverMiddleware(logger))

	// h2c lets plain gRPC health probes reach the server without TLS.
	protocols := new(http.Protocols)
	protocols.SetHTTP1(true)
	protocols.SetUnencryptedHTTP2(true)

	s := &Server{
		echo:   e,
		checks: make(map[string]HealthCheck),
		httpSrv: &http.Server{
			Addr:              addr,
			Handler:           e,
			ReadHeaderTimeout: 10 * time.Second,
			Protocols:         protocols,
		},
	}
	e.GET(healthPath, s.health)
	grpcHealthPath, grpcHealth := grpchealth.NewHandler(s)
	e.POST(grpcHealthPath+"*", echo.WrapHandler(grpcHealth))
	return s
}

// EchoHandler registers Echo based handlers.
type EchoHandler interface {
	Register(g *echo.Group, middleware ...echo.MiddlewareFunc)
}

// RegisterEcho registers an Echo handler.
func (s *Server) RegisterEcho(handler EchoHandler, middleware ...echo.MiddlewareFunc) {
	handler.Register(s.echo.Group(""), middleware...)
}

// RegisterMetrics mounts a metrics exposition handler on /metrics.
func (s *Server) RegisterMetrics(handler http.Handler) {
	s.echo.GET(metricsPath, echo.WrapHandler(handler))
}

// AddHealthCheck makes /healthz fail while check returns an error.
func (s *Server) AddHealthCheck(name string, check HealthCheck) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.checks[name] = check
}

// Handler exposes the router for in-process tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

type healthResponse struct {
	Status string            `json:"status"`
	Failed map[string]string `json:"failed,omitempty"`
}

func (s *Server) health(c echo.Context) error {
	res := healthResponse{Status: "ok", Failed: s.runChecks(c.Request().Context(), "")}
	if len(res.Failed) > 0 {
		res.Status = "unavailable"
		return c.JSON(http.StatusServiceUnavailable, res)
	}
	return c.JSON(http.StatusOK, res)
}

// Check implements grpchealth.Checker. The empty service name covers every
// check; any other name must match a registered check.
func (s *Server) Check(ctx context.Context, req *grpchealth.CheckRequest) (*grpchealth.CheckResponse, error) {
	if req.Service != "" {
		s.mu.Lock()
		_, ok := s.checks[req.Service]
		s.mu.Unlock()
		if !ok {
			return nil, connect.NewError(connect.CodeNotFound, fmt.Errorf("unknown service %q", req.Service))
		}
	}
	if failed := s.runChecks(ctx, req.Service); len(failed) > 0 {
		return &grpchealth.CheckResponse{Status: grpchealth.StatusNotServing}, nil
	}
	return &grpchealth.CheckResponse{Status: grpchealth.StatusServing}, nil
}

// runChecks runs the named check, or all of them when name is empty, and
// returns the failures keyed by check name.
func (s *Server) runChecks(ctx context.Context, name string) map[string]string {
	s.mu.Lock()
	checks := maps.Clone(s.checks)
	s.mu.Unlock()
	if name != "" {
		checks = map[string]HealthCheck{name: checks[name]}
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	var failed map[string]string
	for _, n := range slices.Sorted(maps.Keys(checks)) {
		if err := checks[n](ctx); err != nil {
			if failed == nil {
				failed = make(map[string]string)
			}
			failed[n] = err.Error()
		}
	}
	return failed
}

// Serve starts the HTTP server. It returns nil after Stop.
func (s *Server) Serve() error {
	if err := s.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop gracefully shuts down the HTTP server.
func (s *Server) Stop(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return s.httpSrv.Shutdown(ctx)
}
