package server

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vyrodovalexey/avauthz/internal/authz"
	"github.com/vyrodovalexey/avauthz/internal/health"
)

// authorizeRequest is the payload the calling gateway posts for each
// authorization evaluation.
type authorizeRequest struct {
	// Headers are the raw request headers as received by the gateway.
	Headers map[string]string `json:"headers"`

	// MethodArn identifies the specific route being invoked.
	MethodArn string `json:"methodArn" binding:"required"`
}

// handleAuthorize evaluates one authorization request. The response is
// always 200 with a policy document; malformed payloads are the only
// caller error, and even those deny rather than reject when a resource
// can be identified.
func (s *Server) handleAuthorize(c *gin.Context) {
	var req authorizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid authorize payload"})
		return
	}

	decision := s.authorizer.Authorize(c.Request.Context(), &authz.Request{
		Headers:  req.Headers,
		Resource: req.MethodArn,
	})

	c.JSON(http.StatusOK, decision.ToPolicy())
}

// handleLive answers liveness probes.
func (s *Server) handleLive(c *gin.Context) {
	c.JSON(http.StatusOK, s.checker.Health())
}

// handleReady answers readiness probes, running dependency checks with a
// bounded deadline.
func (s *Server) handleReady(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), health.DefaultReadinessProbeTimeout)
	defer cancel()

	resp := s.checker.Readiness(ctx)
	status := http.StatusOK
	if resp.Status != health.StatusHealthy {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, resp)
}
