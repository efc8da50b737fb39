package controllers

import (
	"net/http"

	"foodninja/models"
	"foodninja/services"

	"github.com/gin-gonic/gin"
)

type cartView struct {
	Items []models.CartLine `json:"items"`
	Total float64           `json:"total"`
}

func newCartView(lines []models.CartLine) cartView {
	if lines == nil {
		lines = []models.CartLine{}
	}
	return cartView{Items: lines, Total: services.CartTotal(lines)}
}

func (h *Handler) GetCart(c *gin.Context) {
	ctx, cancel := h.requestContext(c)
	defer cancel()

	lines, err := h.cart.Read(ctx, c.Param("user"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Fetch success", "data": newCartView(lines)})
}

func (h *Handler) AddToCart(c *gin.Context) {
	var body struct {
		User     string `json:"user" binding:"required"`
		FoodID   string `json:"foodId" binding:"required"`
		Quantity int    `json:"quantity"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, "Invalid request")
		return
	}

	ctx, cancel := h.requestContext(c)
	defer cancel()

	lines, err := h.cart.AddItem(ctx, body.User, body.FoodID, body.Quantity)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Added to cart", "data": newCartView(lines)})
}

func (h *Handler) RemoveFromCart(c *gin.Context) {
	var body struct {
		User   string `json:"user" binding:"required"`
		FoodID string `json:"foodId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, "Invalid request")
		return
	}

	ctx, cancel := h.requestContext(c)
	defer cancel()

	lines, err := h.cart.RemoveItem(ctx, body.User, body.FoodID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Removed from cart", "data": newCartView(lines)})
}

func (h *Handler) UpdateCartQuantity(c *gin.Context) {
	var body struct {
		Delta int `json:"delta"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, "Invalid quantity")
		return
	}

	ctx, cancel := h.requestContext(c)
	defer cancel()

	quantity, err := h.cart.AdjustQuantity(ctx, c.Param("user"), c.Param("foodId"), body.Delta)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Cart updated", "data": gin.H{"quantity": quantity}})
}

func (h *Handler) ClearCart(c *gin.Context) {
	ctx, cancel := h.requestContext(c)
	defer cancel()

	if err := h.cart.Clear(ctx, c.Param("user")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Cart cleared"})
}
