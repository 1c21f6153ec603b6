package api

import (
	"encoding/json"
	"errors"
	"net/http"

	reqdto "stockops/internal/handler/dto/request"
	"stockops/internal/handler/dto/response"
	"stockops/internal/usecase/commands"

	"github.com/gin-gonic/gin"
)

type OrderHandler struct {
	orderCommands commands.OrderCommands
	idempotency   commands.IdempotencyCoordinator
}

func NewOrderHandler(orderCommands commands.OrderCommands, idempotency commands.IdempotencyCoordinator) *OrderHandler {
	return &OrderHandler{orderCommands: orderCommands, idempotency: idempotency}
}

// @Summary Submit a purchase order
// @Description Accepts the order for asynchronous processing. The response replayed for a reused Idempotency-Key is the eventual decrement result, not this acceptance.
// @Tags orders
// @Accept json
// @Produce json
// @Param Idempotency-Key header string false "Idempotency key"
// @Param request body reqdto.SubmitOrderRequest true "Order"
// @Success 202 {object} response.OrderAcceptedResponse
// @Failure 400 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Failure 503 {object} map[string]string
// @Router /orders [post]
func (h *OrderHandler) Submit(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	var req reqdto.SubmitOrderRequest
	if unmarshalErr := json.Unmarshal(body, &req); unmarshalErr != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	key := c.GetHeader("Idempotency-Key")

	lock, err := h.idempotency.Lock(c.Request.Context(), key, body)
	if err != nil {
		c.Header("Retry-After", "5")
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Idempotency service unavailable"})
		return
	}

	switch lock.Outcome {
	case commands.LockReplay:
		c.Data(int(lock.ResponseStatus), "application/json", lock.ResponseBody)
		return
	case commands.LockConflict:
		c.JSON(http.StatusConflict, gin.H{"error": "Idempotency key reused with different payload"})
		return
	case commands.LockInProgress:
		c.JSON(http.StatusConflict, gin.H{"error": "Processing"})
		return
	case commands.LockProceed:
	}

	if !req.IsValid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required fields"})
		return
	}

	err = h.orderCommands.Submit(c.Request.Context(), commands.SubmitOrderParams{
		ItemID:   req.ItemID,
		Quantity: req.Quantity,
		ActorID:  req.ActorID,
	}, key)
	if err != nil {
		switch {
		case errors.Is(err, commands.ErrQueueOverloaded):
			c.Header("Retry-After", "30")
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "System overloaded, please retry later"})
		case errors.Is(err, commands.ErrOrderValidation):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required fields"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to queue order"})
		}
		return
	}

	// The worker commits the idempotency record once the decrement
	// lands, so the lock is left in processing here.
	c.JSON(http.StatusAccepted, response.NewOrderAccepted())
}
