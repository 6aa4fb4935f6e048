package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/samenkoop/winkel/internal/authorization"
	orderdomain "github.com/samenkoop/winkel/internal/order/domain"
)

type orderLineRequest struct {
	ArticleID string          `json:"article_id"`
	PeriodID  *string         `json:"period_id"`
	Quantity  decimal.Decimal `json:"quantity"`
	OptionIDs []string        `json:"option_ids"`
}

type createOrderRequest struct {
	Lines []orderLineRequest `json:"lines"`
}

func (s *Server) CreateOrder(c *gin.Context) {
	var req createOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	lines := make([]orderdomain.LineRequest, 0, len(req.Lines))
	for _, l := range req.Lines {
		lines = append(lines, orderdomain.LineRequest{
			ArticleID: strings.TrimSpace(l.ArticleID),
			PeriodID:  l.PeriodID,
			Quantity:  l.Quantity,
			OptionIDs: l.OptionIDs,
		})
	}

	resp, err := s.orderSvc.Create(c.Request.Context(), orderdomain.CreateRequest{
		GroupID: callerGroup(c),
		BuyerID: callerMember(c),
		Lines:   lines,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetOrder(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	resp, err := s.orderSvc.Get(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// ListOrders returns the caller's own orders, or any buyer's when the
// caller's role grants the listing action.
func (s *Server) ListOrders(c *gin.Context) {
	var query struct {
		BuyerID string `form:"buyer_id"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	buyerID := strings.TrimSpace(query.BuyerID)
	action := authorization.ActionOrderList
	if buyerID == callerMember(c) {
		action = authorization.ActionOrderView
	}
	if err := s.authorize(c, authorization.ObjectOrder, action); err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.orderSvc.List(c.Request.Context(), orderdomain.ListQuery{
		GroupID: callerGroup(c),
		BuyerID: buyerID,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

type updateOrderLineRequest struct {
	Quantity  *decimal.Decimal `json:"quantity"`
	OptionIDs *[]string        `json:"option_ids"`
}

func (s *Server) UpdateOrderLine(c *gin.Context) {
	var req updateOrderLineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.orderSvc.UpdateLine(
		c.Request.Context(),
		strings.TrimSpace(c.Param("id")),
		strings.TrimSpace(c.Param("lineID")),
		orderdomain.UpdateLineRequest{
			Quantity:  req.Quantity,
			OptionIDs: req.OptionIDs,
		},
	)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeleteOrderLine(c *gin.Context) {
	resp, err := s.orderSvc.DeleteLine(
		c.Request.Context(),
		strings.TrimSpace(c.Param("id")),
		strings.TrimSpace(c.Param("lineID")),
	)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if resp == nil {
		// The last line was removed and the order with it.
		c.JSON(http.StatusOK, gin.H{"data": nil, "deleted": true})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
