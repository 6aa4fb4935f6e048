package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	saledomain "github.com/samenkoop/winkel/internal/sale/domain"
)

type saleLineRequest struct {
	ArticleID string          `json:"article_id"`
	Quantity  decimal.Decimal `json:"quantity"`
}

type createSaleRequest struct {
	Lines []saleLineRequest `json:"lines"`
}

func (s *Server) CreateSale(c *gin.Context) {
	var req createSaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	lines := make([]saledomain.LineRequest, 0, len(req.Lines))
	for _, l := range req.Lines {
		lines = append(lines, saledomain.LineRequest{
			ArticleID: strings.TrimSpace(l.ArticleID),
			Quantity:  l.Quantity,
		})
	}

	resp, err := s.saleSvc.Create(c.Request.Context(), saledomain.CreateRequest{
		GroupID:  callerGroup(c),
		SellerID: callerMember(c),
		Lines:    lines,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetSale(c *gin.Context) {
	resp, err := s.saleSvc.Get(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

type paySaleLineRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

func (s *Server) PaySaleLine(c *gin.Context) {
	var req paySaleLineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.saleSvc.PayLine(
		c.Request.Context(),
		strings.TrimSpace(c.Param("id")),
		strings.TrimSpace(c.Param("lineID")),
		saledomain.PayRequest{Amount: req.Amount},
	)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
