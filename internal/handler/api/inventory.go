package api

import (
	"encoding/json"
	"errors"
	"net/http"

	reqdto "stockops/internal/handler/dto/request"
	"stockops/internal/infra"
	"stockops/internal/usecase/commands"
	"stockops/internal/usecase/queries"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type InventoryHandler struct {
	inventoryCommands commands.InventoryCommands
	stockCommands     commands.StockCommands
	idempotency       commands.IdempotencyCoordinator
	inventoryQueries  queries.InventoryQueries
}

func NewInventoryHandler(
	inventoryCommands commands.InventoryCommands,
	stockCommands commands.StockCommands,
	idempotency commands.IdempotencyCoordinator,
	inventoryQueries queries.InventoryQueries,
) *InventoryHandler {
	return &InventoryHandler{
		inventoryCommands: inventoryCommands,
		stockCommands:     stockCommands,
		idempotency:       idempotency,
		inventoryQueries:  inventoryQueries,
	}
}

// @Summary List inventory items
// @Tags inventory
// @Produce json
// @Success 200 {array} queries.InventoryView
// @Router /inventory [get]
func (h *InventoryHandler) List(c *gin.Context) {
	views, err := h.inventoryQueries.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	c.JSON(http.StatusOK, views)
}

// @Summary Get inventory item
// @Tags inventory
// @Produce json
// @Param id path string true "Item ID"
// @Success 200 {object} queries.InventoryView
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /inventory/{id} [get]
func (h *InventoryHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid item ID format"})
		return
	}

	view, err := h.inventoryQueries.GetByID(c.Request.Context(), id)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Item not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	c.JSON(http.StatusOK, view)
}

// @Summary Create inventory item
// @Tags inventory
// @Accept json
// @Produce json
// @Param request body reqdto.CreateItemRequest true "Item"
// @Success 201 {object} queries.InventoryView
// @Failure 400 {object} map[string]string
// @Router /inventory [post]
func (h *InventoryHandler) Create(c *gin.Context) {
	var req reqdto.CreateItemRequest
	if bindErr := c.ShouldBindJSON(&req); bindErr != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	snap, err := h.inventoryCommands.Create(c.Request.Context(), req.Name, req.QuantityAvailable, actorID(c))
	if err != nil {
		if errors.Is(err, commands.ErrItemValidation) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid item"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	c.JSON(http.StatusCreated, queries.ViewFromSnapshot(snap))
}

// @Summary Update inventory item
// @Description A body carrying "decrement" performs an idempotent, optimistically-locked stock decrement; any other body is a manual field override.
// @Tags inventory
// @Accept json
// @Produce json
// @Param Idempotency-Key header string false "Idempotency key for the decrement path"
// @Param id path string true "Item ID"
// @Param request body reqdto.UpdateItemRequest true "Update"
// @Success 200 {object} queries.InventoryView
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Failure 503 {object} map[string]string
// @Router /inventory/{id} [patch]
func (h *InventoryHandler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid item ID format"})
		return
	}

	// The raw bytes are kept: the idempotency fingerprint hashes the
	// body exactly as the client sent it.
	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	var req reqdto.UpdateItemRequest
	if unmarshalErr := json.Unmarshal(body, &req); unmarshalErr != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	if req.IsDecrement() {
		h.decrement(c, id, body, *req.Decrement)
		return
	}

	snap, err := h.inventoryCommands.Update(c.Request.Context(), id, req.ToPatch(), actorID(c))
	if err != nil {
		switch {
		case errors.Is(err, commands.ErrItemValidation):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Quantity fields must be non-negative"})
		case errors.Is(err, commands.ErrItemNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Item not found"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		}
		return
	}
	c.JSON(http.StatusOK, queries.ViewFromSnapshot(snap))
}

func (h *InventoryHandler) decrement(c *gin.Context, id uuid.UUID, body []byte, quantity int32) {
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

	snap, err := h.stockCommands.Decrement(c.Request.Context(), id, quantity, actorID(c))
	if err != nil {
		switch {
		case errors.Is(err, commands.ErrInvalidDecrement):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Decrement must be a positive number"})
		case errors.Is(err, commands.ErrItemNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Item not found"})
		case errors.Is(err, commands.ErrStockInsufficient):
			c.JSON(http.StatusConflict, gin.H{"error": "Insufficient stock"})
		case errors.Is(err, commands.ErrConcurrencyExhausted):
			c.JSON(http.StatusConflict, gin.H{"error": "Failed to update stock due to high concurrency"})
		default:
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Storage unavailable"})
		}
		return
	}

	// Marshal once so the committed replay body is byte-identical to
	// this response.
	respBody, err := json.Marshal(queries.ViewFromSnapshot(snap))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	if commitErr := h.idempotency.Commit(c.Request.Context(), key, http.StatusOK, respBody); commitErr != nil {
		// The decrement stands; a failed commit only costs a future
		// replay and is recovered by the staleness claim.
		_ = c.Error(commitErr)
	}

	c.Data(http.StatusOK, "application/json", respBody)
}

// @Summary Delete inventory item
// @Tags inventory
// @Produce json
// @Param id path string true "Item ID"
// @Success 200 {object} map[string]string
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /inventory/{id} [delete]
func (h *InventoryHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid item ID format"})
		return
	}

	if err := h.inventoryCommands.Delete(c.Request.Context(), id, actorID(c)); err != nil {
		if errors.Is(err, commands.ErrItemNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Item not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Item deleted"})
}

// actorID attributes mutations in the audit trail. Authentication is
// handled upstream; an unattributed request is recorded as "system".
func actorID(c *gin.Context) string {
	if actor := c.GetHeader("X-Actor-ID"); actor != "" {
		return actor
	}
	return "system"
}
