package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/aescanero/gridmock/internal/application/catalog"
	"github.com/aescanero/gridmock/pkg/domain"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"go.uber.org/zap"
)

const (
	internalErrorMessage     = "Internal server error"
	componentNotFoundMessage = "Component not found"
	historyNotFoundMessage   = "History not found for component"
	invalidBodyMessage       = "Request body must be a JSON object"

	healthCheckTimeout = 2 * time.Second
)

// ErrorResponse is the body of every error reply
type ErrorResponse struct {
	Message string `json:"message"`
}

// componentRequest keeps raw field values so wrong JSON types can be
// reported with the same messages as missing ones
type componentRequest struct {
	Name   json.RawMessage `json:"name"`
	Status json.RawMessage `json:"status"`
	Type   json.RawMessage `json:"type"`
}

func (r componentRequest) input() catalog.ComponentInput {
	return catalog.ComponentInput{
		Name:   rawValue(r.Name),
		Status: rawValue(r.Status),
		Type:   rawValue(r.Type),
	}
}

// rawValue converts a raw JSON field; nil means the key was absent
func rawValue(raw json.RawMessage) catalog.Value {
	if raw == nil {
		return catalog.Value{}
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return catalog.Value{Present: true}
	}
	return catalog.String(s)
}

// bindComponentRequest decodes the body. An empty body is an empty object.
func bindComponentRequest(c *gin.Context) (componentRequest, bool) {
	var req componentRequest

	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: invalidBodyMessage})
		return req, false
	}

	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return req, true
	}

	if bytes.Equal(body, []byte("null")) {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: invalidBodyMessage})
		return req, false
	}

	if err := binding.JSON.BindBody(body, &req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: invalidBodyMessage})
		return req, false
	}

	return req, true
}

// windowParam parses a non-negative integer query value, falling back to def
func windowParam(raw string, def int) int {
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return def
	}
	return n
}

// writeError maps service errors to status codes. Unexpected errors are
// logged and replaced by a generic message.
func (s *Server) writeError(c *gin.Context, err error) {
	var verr *domain.ValidationError

	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: verr.Message})
	case errors.Is(err, domain.ErrComponentNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Message: componentNotFoundMessage})
	case errors.Is(err, domain.ErrHistoryNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Message: historyNotFoundMessage})
	default:
		s.logger.Error("unexpected error",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Message: internalErrorMessage})
	}
}

// handleHealth handles health check requests
func (s *Server) handleHealth(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
	defer cancel()

	now := time.Now().UTC().Format(time.RFC3339)

	if err := s.catalog.Ping(ctx); err != nil {
		s.logger.Warn("health check failed", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":    "unhealthy",
			"timestamp": now,
			"checks": gin.H{
				"storage": "unavailable",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": now,
		"checks": gin.H{
			"storage": "ok",
		},
	})
}

// handleListComponents handles GET /api/components?offset=&limit=
func (s *Server) handleListComponents(c *gin.Context) {
	offset := windowParam(c.Query("offset"), 0)
	limit := windowParam(c.Query("limit"), s.defaultLimit)

	page, err := s.catalog.ListComponents(c.Request.Context(), offset, limit)
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, page)
}

// handleGetComponent handles GET /api/components/:id
func (s *Server) handleGetComponent(c *gin.Context) {
	comp, err := s.catalog.GetComponent(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, comp)
}

// handleGetHistory handles GET /api/history/:id
func (s *Server) handleGetHistory(c *gin.Context) {
	points, err := s.catalog.GetHistory(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, points)
}

// handleCreateComponent handles POST /api/components
func (s *Server) handleCreateComponent(c *gin.Context) {
	req, ok := bindComponentRequest(c)
	if !ok {
		return
	}

	comp, err := s.catalog.CreateComponent(c.Request.Context(), req.input())
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, comp)
}

// handleUpdateComponent handles PUT /api/components/:id
func (s *Server) handleUpdateComponent(c *gin.Context) {
	req, ok := bindComponentRequest(c)
	if !ok {
		return
	}

	comp, err := s.catalog.UpdateComponent(c.Request.Context(), c.Param("id"), req.input())
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, comp)
}

// handleDeleteComponent handles DELETE /api/components/:id
func (s *Server) handleDeleteComponent(c *gin.Context) {
	if err := s.catalog.DeleteComponent(c.Request.Context(), c.Param("id")); err != nil {
		s.writeError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
