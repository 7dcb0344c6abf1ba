package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/prendasoft/prenda-api/internal/services"
)

type AuctionHandler struct {
	auctionService *services.AuctionService
}

func NewAuctionHandler(auctionService *services.AuctionService) *AuctionHandler {
	return &AuctionHandler{auctionService: auctionService}
}

type SellItemRequest struct {
	Price float64 `json:"price" binding:"required"`
}

// Sell records the auction sale of a forfeited item
func (h *AuctionHandler) Sell(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("item_id"), 10, 32)
	var req SellItemRequest
	if err := BindNestedOrFlat(c, "sale", &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	item, err := h.auctionService.Sell(c.Request.Context(), uint(id), req.Price, actorFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"item": item})
}
