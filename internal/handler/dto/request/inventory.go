package request

import (
	"stockops/internal/usecase/commands"
)

type CreateItemRequest struct {
	Name              string `json:"name" binding:"required"`
	QuantityAvailable int32  `json:"quantity_available" binding:"gte=0"`
}

// UpdateItemRequest covers both PATCH paths. A body carrying
// `decrement` takes the OCC path; any other combination of fields is a
// manual admin override.
type UpdateItemRequest struct {
	Decrement         *int32  `json:"decrement,omitempty"`
	Name              *string `json:"name,omitempty"`
	QuantityAvailable *int32  `json:"quantity_available,omitempty"`
	QuantitySold      *int32  `json:"quantity_sold,omitempty"`
}

func (r UpdateItemRequest) IsDecrement() bool {
	return r.Decrement != nil
}

func (r UpdateItemRequest) ToPatch() commands.ItemPatch {
	return commands.ItemPatch{
		Name:              r.Name,
		QuantityAvailable: r.QuantityAvailable,
		QuantitySold:      r.QuantitySold,
	}
}
