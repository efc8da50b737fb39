package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (h *Handler) GetOrdersAdmin(c *gin.Context) {
	ctx, cancel := h.requestContext(c)
	defer cancel()

	orders, err := h.orders.List(ctx)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Fetch success", "data": orders})
}

func (h *Handler) GetOrderByIDAdmin(c *gin.Context) {
	ctx, cancel := h.requestContext(c)
	defer cancel()

	order, err := h.orders.Get(ctx, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Fetch success", "data": order})
}

func (h *Handler) UpdateOrderStatus(c *gin.Context) {
	var body struct {
		Status string `json:"status" binding:"required,orderstatus"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, "Invalid status value")
		return
	}

	ctx, cancel := h.requestContext(c)
	defer cancel()

	order, err := h.orders.UpdateStatus(ctx, c.Param("id"), body.Status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Order status updated", "data": order})
}
