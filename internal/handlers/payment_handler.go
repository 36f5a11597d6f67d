package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jeffleon2/draftea-payment-pipeline/internal/broker"
	"github.com/jeffleon2/draftea-payment-pipeline/internal/models"
	"github.com/jeffleon2/draftea-payment-pipeline/internal/models/dto"
	"github.com/jeffleon2/draftea-payment-pipeline/internal/validation"
	"github.com/sirupsen/logrus"
)

type PaymentProcessor interface {
	ProcessPayment(ctx context.Context, req *dto.PaymentRequest) (*dto.PaymentAck, error)
}

type PaymentHandler struct {
	Service PaymentProcessor
}

func NewPaymentHandler(s PaymentProcessor) *PaymentHandler {
	return &PaymentHandler{Service: s}
}

// POST /payment
func (h *PaymentHandler) CreatePayment(c *gin.Context) {
	var req dto.PaymentRequest
	if err := validation.BindAndValidate(c, &req, validation.Default()); err != nil {
		return
	}

	ack, err := h.Service.ProcessPayment(c.Request.Context(), &req)
	if err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, models.ErrInvalidMessage):
			status = http.StatusBadRequest
		case errors.Is(err, broker.ErrChannelUnavailable):
			status = http.StatusServiceUnavailable
		}
		logrus.Errorf("Error processing payment request: %s", err.Error())
		c.JSON(status, gin.H{"success": false, "error": err.Error()})
		return
	}

	c.JSON(http.StatusAccepted, ack)
}
