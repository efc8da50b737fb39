package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (h *Handler) GetFoods(c *gin.Context) {
	ctx, cancel := h.requestContext(c)
	defer cancel()

	foods, err := h.catalog.List(ctx)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Fetch success", "data": foods})
}

func (h *Handler) GetFoodByID(c *gin.Context) {
	ctx, cancel := h.requestContext(c)
	defer cancel()

	food, err := h.catalog.Get(ctx, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Fetch success", "data": food})
}
