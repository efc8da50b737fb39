package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (h *Handler) GetUserOrders(c *gin.Context) {
	ctx, cancel := h.requestContext(c)
	defer cancel()

	orders, err := h.orders.ListForUser(ctx, c.Param("user"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Fetch success", "data": orders})
}
