package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/danmuck/rigctl/internal/auth"
	"github.com/danmuck/rigctl/internal/envelope"
	"github.com/danmuck/rigctl/internal/observability"
	"github.com/danmuck/rigctl/internal/rigs"
)

// registerRoutes wires the route table once per engine. The throttle
// gate runs before token validation so over-budget clients are rejected
// without touching the authority.
func (s *Service) registerRoutes() {
	r := s.engine

	r.GET("/health", s.handleHealth)
	r.GET("/ready", s.handleReady)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/ws", gin.WrapH(s.hub.Handler()))

	api := r.Group("/api", s.gate.Middleware(), auth.RequireToken(s.authority))
	api.GET("/rigs", s.handleRigs)
	api.GET("/capabilities", s.handleCapabilities)
	api.POST("/rigs/:rig/:op", s.handleDispatch)
	api.POST("/token/rotate", s.handleRotate)
}

func (s *Service) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"uptime":  time.Since(s.appeared).String(),
		"service": "rigctl",
		"version": version,
	})
}

func (s *Service) handleReady(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"ready":   true,
		"uptime":  time.Since(s.appeared).String(),
		"rigs":    s.registry.Names(),
		"version": version,
	})
}

func (s *Service) handleRigs(c *gin.Context) {
	envelope.OK(c, http.StatusOK, gin.H{"rigs": s.registry.Descriptors()})
}

func (s *Service) handleCapabilities(c *gin.Context) {
	envelope.OK(c, http.StatusOK, gin.H{"capabilities": s.registry.Capabilities()})
}

func (s *Service) handleDispatch(c *gin.Context) {
	rigName := c.Param("rig")
	opName := c.Param("op")

	args, err := decodeArgs(c)
	if err != nil {
		envelope.Fail(c, http.StatusBadRequest, envelope.CodeInvalidRequest, "malformed request body",
			[]rigs.Violation{{Field: "body", Reason: err.Error()}})
		return
	}

	unit, ok := s.registry.Get(rigName)
	if !ok {
		envelope.Fail(c, http.StatusNotFound, envelope.CodeResourceNotFound,
			fmt.Sprintf("unknown rig %q", rigName), nil)
		return
	}

	start := time.Now()
	out, err := unit.Dispatch(c.Request.Context(), opName, args)
	observability.RecordDispatch(rigName, opName, err, time.Since(start))
	if err != nil {
		s.log.Warn().
			Str("rig", rigName).
			Str("op", opName).
			Err(err).
			Msg("dispatch_failed")
		writeDispatchError(c, rigName, opName, err)
		return
	}
	s.log.Info().
		Str("rig", rigName).
		Str("op", opName).
		Msg("dispatch_ok")
	envelope.OK(c, http.StatusOK, out)
}

func (s *Service) handleRotate(c *gin.Context) {
	token, err := s.authority.Rotate()
	if err != nil {
		envelope.Fail(c, http.StatusInternalServerError, envelope.CodeOperationFailed,
			"token rotation failed", nil)
		return
	}
	s.log.Info().Str("token", s.authority.Fingerprint()).Msg("token_rotated_via_api")
	envelope.OK(c, http.StatusOK, gin.H{
		"token":       token,
		"fingerprint": s.authority.Fingerprint(),
	})
}

// decodeArgs reads the optional JSON body. An empty body means an
// operation with no arguments.
func decodeArgs(c *gin.Context) (map[string]any, error) {
	if c.Request.Body == nil {
		return map[string]any{}, nil
	}
	raw, err := io.ReadAll(c.Request.Body)
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return map[string]any{}, nil
	}
	var args map[string]any
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, err
	}
	if args == nil {
		args = map[string]any{}
	}
	return args, nil
}

func writeDispatchError(c *gin.Context, rigName, opName string, err error) {
	var argErr *rigs.ArgError
	switch {
	case errors.As(err, &argErr):
		envelope.Fail(c, http.StatusBadRequest, envelope.CodeInvalidRequest,
			"argument validation failed", argErr.Violations)
	case errors.Is(err, rigs.ErrOpUnknown):
		envelope.Fail(c, http.StatusNotFound, envelope.CodeResourceNotFound,
			fmt.Sprintf("rig %q has no operation %q", rigName, opName), nil)
	case errors.Is(err, os.ErrPermission):
		envelope.Fail(c, http.StatusForbidden, envelope.CodePermissionDenied, err.Error(), nil)
	case errors.Is(err, context.DeadlineExceeded):
		envelope.Fail(c, http.StatusGatewayTimeout, envelope.CodeTimeout, err.Error(), nil)
	default:
		envelope.Fail(c, http.StatusInternalServerError, envelope.CodeOperationFailed, err.Error(), nil)
	}
}
