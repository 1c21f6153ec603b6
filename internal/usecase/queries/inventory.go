package queries

import (
	"context"
	"time"

	"stockops/internal/usecase/commands"

	"github.com/google/uuid"
)

// InventoryView is the canonical wire shape of an inventory item. The
// worker stores exactly this JSON in the idempotency record, so a
// replayed response is byte-identical no matter which path produced it.
type InventoryView struct {
	ID                uuid.UUID `json:"id"`
	Name              string    `json:"name"`
	QuantityAvailable int32     `json:"quantity_available"`
	QuantitySold      int32     `json:"quantity_sold"`
	Version           int64     `json:"version"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

type InventoryQueries interface {
	// GetByID returns KindNotFound when no row matches.
	GetByID(ctx context.Context, id uuid.UUID) (*InventoryView, error)
	List(ctx context.Context) ([]*InventoryView, error)
}

func ViewFromSnapshot(s *commands.InventorySnapshot) *InventoryView {
	return &InventoryView{
		ID:                s.ID,
		Name:              s.Name,
		QuantityAvailable: s.QuantityAvailable,
		QuantitySold:      s.QuantitySold,
		Version:           s.Version,
		CreatedAt:         s.CreatedAt,
		UpdatedAt:         s.UpdatedAt,
	}
}
