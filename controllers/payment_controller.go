package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// CreatePaymentIntent answers with the client secret the checkout page
// confirms the payment with.
func (h *Handler) CreatePaymentIntent(c *gin.Context) {
	var body struct {
		Amount decimal.Decimal `json:"amount"`
		User   string          `json:"user"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, "Invalid request")
		return
	}

	ctx, cancel := h.requestContext(c)
	defer cancel()

	secret, err := h.payments.CreateIntent(ctx, body.User, body.Amount)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"clientSecret": secret})
}
