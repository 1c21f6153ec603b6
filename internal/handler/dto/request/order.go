package request

import (
	"github.com/google/uuid"
)

// SubmitOrderRequest is the asynchronous purchase payload. Field names
// match the public wire format.
type SubmitOrderRequest struct {
	ItemID   uuid.UUID `json:"itemId"`
	Quantity int32     `json:"quantity"`
	ActorID  string    `json:"actorId"`
}

func (r SubmitOrderRequest) IsValid() bool {
	return r.ItemID != uuid.Nil && r.Quantity > 0 && r.ActorID != ""
}
