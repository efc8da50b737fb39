package controllers

import (
	"net/http"

	"foodninja/models"

	"github.com/gin-gonic/gin"
)

func (h *Handler) CreateFood(c *gin.Context) {
	var body struct {
		Name        string   `json:"name" binding:"required"`
		Description string   `json:"description"`
		Price       float64  `json:"price" binding:"required,gt=0"`
		Image       string   `json:"image"`
		Category    string   `json:"category"`
		Restaurant  string   `json:"restaurant"`
		Tags        []string `json:"tags"`
		IsAvailable *bool    `json:"isAvailable"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, "Name and a positive price are required")
		return
	}

	food := models.Food{
		Name:        body.Name,
		Description: body.Description,
		Price:       body.Price,
		Image:       body.Image,
		Category:    body.Category,
		Restaurant:  body.Restaurant,
		Tags:        body.Tags,
		IsAvailable: body.IsAvailable == nil || *body.IsAvailable,
	}

	ctx, cancel := h.requestContext(c)
	defer cancel()

	created, err := h.catalog.Create(ctx, food)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Food created", "data": created})
}

func (h *Handler) UpdateFood(c *gin.Context) {
	var patch models.FoodPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		badRequest(c, "Invalid request body")
		return
	}

	ctx, cancel := h.requestContext(c)
	defer cancel()

	updated, err := h.catalog.Update(ctx, c.Param("id"), patch)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Food updated", "data": updated})
}

func (h *Handler) DeleteFood(c *gin.Context) {
	ctx, cancel := h.requestContext(c)
	defer cancel()

	if err := h.catalog.Delete(ctx, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Food deleted", "id": c.Param("id")})
}
