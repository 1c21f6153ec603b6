package api

import (
	"context"
	"net/http"

	"stockops/internal/handler/dto/response"

	"github.com/gin-gonic/gin"
)

// QueueOps is the operational surface of the job queue exposed over
// HTTP.
type QueueOps interface {
	Len(ctx context.Context) (int64, error)
	DeadLetterLen(ctx context.Context) (int64, error)
	RedriveAll(ctx context.Context) (int64, error)
}

type QueueHandler struct {
	queue QueueOps
}

func NewQueueHandler(queue QueueOps) *QueueHandler {
	return &QueueHandler{queue: queue}
}

// @Summary Queue depths
// @Tags queue
// @Produce json
// @Success 200 {object} response.QueueStatsResponse
// @Failure 503 {object} map[string]string
// @Router /queue/stats [get]
func (h *QueueHandler) Stats(c *gin.Context) {
	depth, err := h.queue.Len(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Queue unavailable"})
		return
	}

	dlqDepth, err := h.queue.DeadLetterLen(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Queue unavailable"})
		return
	}

	c.JSON(http.StatusOK, response.QueueStatsResponse{Depth: depth, DeadLetterDepth: dlqDepth})
}

// @Summary Redrive dead letters
// @Description Moves every dead-lettered job back onto the main queue for reprocessing.
// @Tags queue
// @Produce json
// @Success 200 {object} response.RedriveResponse
// @Failure 503 {object} map[string]string
// @Router /queue/redrive [post]
func (h *QueueHandler) Redrive(c *gin.Context) {
	moved, err := h.queue.RedriveAll(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Queue unavailable"})
		return
	}
	c.JSON(http.StatusOK, response.RedriveResponse{Moved: moved})
}
