package server

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	settlementdomain "github.com/samenkoop/winkel/internal/settlement/domain"
)

type settleFunc func(ctx context.Context, groupID, periodID, buyerID string) (*settlementdomain.Summary, error)

func (s *Server) GetSettlement(c *gin.Context) {
	resp, err := s.settlementSvc.Summary(
		c.Request.Context(),
		callerGroup(c),
		strings.TrimSpace(c.Param("id")),
	)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetSettlementPDF(c *gin.Context) {
	pdfBytes, err := s.settlementSvc.SummaryPDF(
		c.Request.Context(),
		callerGroup(c),
		strings.TrimSpace(c.Param("id")),
	)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="settlement.pdf"`)
	c.Data(http.StatusOK, "application/pdf", pdfBytes)
}

type settleRequest struct {
	BuyerID string `json:"buyer_id"`
}

func (s *Server) MarkSettlementPaid(c *gin.Context) {
	s.settle(c, s.settlementSvc.MarkPaid)
}

func (s *Server) MarkSettlementUnpaid(c *gin.Context) {
	s.settle(c, s.settlementSvc.MarkUnpaid)
}

// settle runs one settlement mutation under a short redis lock so two
// treasurers flipping the same period do not interleave.
func (s *Server) settle(c *gin.Context, op settleFunc) {
	var req settleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	buyerID := strings.TrimSpace(req.BuyerID)
	if buyerID == "" {
		AbortWithError(c, newValidationError("buyer_id", "required", "buyer_id is required"))
		return
	}

	ctx := c.Request.Context()
	groupID := callerGroup(c)
	periodID := strings.TrimSpace(c.Param("id"))

	token, ok, err := s.limiter.LockSettlement(ctx, groupID, periodID)
	if err == nil && !ok {
		AbortWithError(c, ErrConflict)
		return
	}
	if err == nil && token != "" {
		defer func() { _ = s.limiter.UnlockSettlement(ctx, groupID, periodID, token) }()
	}

	resp, err := op(ctx, groupID, periodID, buyerID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
