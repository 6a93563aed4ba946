// Package server composes the rigctl control plane: token authority,
// throttle gate, rig registry, websocket hub, and the gin route table,
// wrapped in a signal-driven run loop.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/danmuck/rigctl/internal/auth"
	"github.com/danmuck/rigctl/internal/effectors/local"
	"github.com/danmuck/rigctl/internal/envelope"
	"github.com/danmuck/rigctl/internal/hub"
	"github.com/danmuck/rigctl/internal/observability"
	"github.com/danmuck/rigctl/internal/rigs"
	"github.com/danmuck/rigctl/internal/rigs/clipboard"
	"github.com/danmuck/rigctl/internal/rigs/fileops"
	"github.com/danmuck/rigctl/internal/rigs/keyboard"
	"github.com/danmuck/rigctl/internal/rigs/mouse"
	"github.com/danmuck/rigctl/internal/rigs/proc"
	"github.com/danmuck/rigctl/internal/rigs/window"
	"github.com/danmuck/rigctl/internal/throttle"
)

const version = "0.1.0"

var ErrUnknownRig = errors.New("server: unknown rig")

// Config holds the daemon runtime knobs. Zero values fall back to
// DefaultConfig through WithDefaults.
type Config struct {
	Addr           string
	TokenPath      string
	CORSOrigins    []string
	ThrottleLimit  int
	ThrottleWindow time.Duration
	Rigs           []string
	FileRoot       string
	ShutdownGrace  time.Duration
}

// DefaultConfig returns the loopback-only defaults used when no config
// file or environment overrides are present.
func DefaultConfig() Config {
	return Config{
		Addr:           "127.0.0.1:7700",
		TokenPath:      filepath.Join("local", "token.json"),
		CORSOrigins:    []string{"http://localhost:3000"},
		ThrottleLimit:  throttle.DefaultLimit,
		ThrottleWindow: throttle.DefaultWindow,
		Rigs:           []string{"window", "keyboard", "mouse", "process", "clipboard", "file"},
		FileRoot:       filepath.Join("local", "dir"),
		ShutdownGrace:  10 * time.Second,
	}
}

// WithDefaults fills unset fields from DefaultConfig.
func (c Config) WithDefaults() Config {
	def := DefaultConfig()
	if strings.TrimSpace(c.Addr) == "" {
		c.Addr = def.Addr
	}
	if strings.TrimSpace(c.TokenPath) == "" {
		c.TokenPath = def.TokenPath
	}
	if len(c.CORSOrigins) == 0 {
		c.CORSOrigins = append([]string(nil), def.CORSOrigins...)
	}
	if c.ThrottleLimit <= 0 {
		c.ThrottleLimit = def.ThrottleLimit
	}
	if c.ThrottleWindow <= 0 {
		c.ThrottleWindow = def.ThrottleWindow
	}
	if len(c.Rigs) == 0 {
		c.Rigs = append([]string(nil), def.Rigs...)
	}
	if strings.TrimSpace(c.FileRoot) == "" {
		c.FileRoot = def.FileRoot
	}
	if c.ShutdownGrace <= 0 {
		c.ShutdownGrace = def.ShutdownGrace
	}
	return c
}

// Service owns every long-lived component of the rigctl daemon.
type Service struct {
	cfg       Config
	log       zerolog.Logger
	engine    *gin.Engine
	httpSrv   *http.Server
	authority *auth.Authority
	registry  *rigs.Registry
	gate      *throttle.Gate
	hub       *hub.Hub
	units     []rigs.Rig
	appeared  time.Time
}

// NewService wires the component graph but does not touch the network
// or the token record; Run does the bootstrap.
func NewService(cfg Config) (*Service, error) {
	cfg = cfg.WithDefaults()
	logger := observability.InitLogger("rigctl")
	observability.RegisterMetrics()

	authority := auth.NewAuthority(cfg.TokenPath, logger)
	sessions := hub.New(authority, logger)
	units, err := buildRigSet(cfg, sessions, logger)
	if err != nil {
		return nil, err
	}

	s := &Service{
		cfg:       cfg,
		log:       logger,
		authority: authority,
		registry:  rigs.NewRegistry(logger),
		gate:      throttle.NewGate(cfg.ThrottleLimit, cfg.ThrottleWindow),
		hub:       sessions,
		units:     units,
	}
	s.engine = s.buildEngine()
	s.registerRoutes()
	return s, nil
}

// HTTPRouter exposes the gin engine for in-process dispatch.
func (s *Service) HTTPRouter() *gin.Engine {
	return s.engine
}

// Authority exposes the token authority for operator tooling.
func (s *Service) Authority() *auth.Authority {
	return s.authority
}

// Run blocks until SIGINT/SIGTERM or a listener failure, then drains.
func (s *Service) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return s.run(ctx)
}

func (s *Service) run(ctx context.Context) error {
	if err := s.bootstrap(ctx); err != nil {
		return err
	}

	s.httpSrv = &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 5 * time.Second,
	}
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- s.httpSrv.ListenAndServe()
	}()
	s.log.Info().
		Str("addr", s.cfg.Addr).
		Str("token", s.authority.Fingerprint()).
		Msg("server_listening")

	select {
	case err := <-serveErr:
		s.hub.CloseAll()
		s.registry.Destroy(context.Background())
		return fmt.Errorf("server: serve %s: %w", s.cfg.Addr, err)
	case <-ctx.Done():
	}
	return s.shutdown()
}

// bootstrap loads the token record and initializes the rig set. Any
// failure here surfaces before the listener opens.
func (s *Service) bootstrap(ctx context.Context) error {
	if err := s.authority.Initialize(); err != nil {
		return fmt.Errorf("server: token authority: %w", err)
	}
	if err := s.registry.Init(ctx, s.units...); err != nil {
		return fmt.Errorf("server: rig registry: %w", err)
	}
	s.appeared = time.Now()
	s.log.Info().
		Strs("rigs", s.registry.Names()).
		Int("capabilities", len(s.registry.Capabilities())).
		Msg("server_ready")
	return nil
}

// shutdown stops intake first, then sweeps sessions and rigs. The sweep
// continues past individual failures; only a drain failure is returned.
func (s *Service) shutdown() error {
	s.log.Info().Dur("grace", s.cfg.ShutdownGrace).Msg("server_stopping")
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownGrace)
	defer cancel()

	err := s.httpSrv.Shutdown(ctx)
	s.hub.CloseAll()
	s.registry.Destroy(ctx)
	if err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	s.log.Info().Msg("server_stopped")
	return nil
}

func (s *Service) buildEngine() *gin.Engine {
	r := gin.New()
	r.Use(gin.CustomRecovery(func(c *gin.Context, recovered any) {
		s.log.Error().
			Interface("panic", recovered).
			Str("path", c.Request.URL.Path).
			Msg("handler_panic")
		envelope.Abort(c, http.StatusInternalServerError, envelope.CodeInternalError, "internal error", nil)
	}))
	r.Use(observability.RequestLogger(s.log))
	r.Use(observability.RequestMetricsMiddleware())
	r.Use(cors.New(cors.Config{
		AllowOrigins: s.cfg.CORSOrigins,
		AllowMethods: []string{"GET", "POST"},
		AllowHeaders: []string{"Origin", "Content-Type", "Authorization"},
		MaxAge:       12 * time.Hour,
	}))
	_ = r.SetTrustedProxies([]string{"127.0.0.1", "::1"})
	return r
}

// buildRigSet maps configured rig names onto compile-time constructors.
// Desktop rigs ship without an effector and report unsupported until a
// platform backend is wired in; process and file get local effectors.
func buildRigSet(cfg Config, sink rigs.EventSink, logger zerolog.Logger) ([]rigs.Rig, error) {
	units := make([]rigs.Rig, 0, len(cfg.Rigs))
	for _, name := range cfg.Rigs {
		switch strings.TrimSpace(name) {
		case "window":
			units = append(units, window.New(nil, sink, logger))
		case "keyboard":
			units = append(units, keyboard.New(nil, logger))
		case "mouse":
			units = append(units, mouse.New(nil, logger))
		case "process":
			units = append(units, proc.New(local.NewProcEffector(logger), sink, logger))
		case "clipboard":
			units = append(units, clipboard.New(nil, sink, logger))
		case "file":
			units = append(units, fileops.New(local.NewFileEffector(cfg.FileRoot), sink, logger))
		case "":
			continue
		default:
			return nil, fmt.Errorf("%w: %q", ErrUnknownRig, name)
		}
	}
	return units, nil
}
