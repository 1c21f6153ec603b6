package inventory

import (
	"errors"
	"strings"

	"github.com/google/uuid"
)

var (
	ErrEmptyItemName        = errors.New("item name cannot be empty")
	ErrItemNameTooLong      = errors.New("item name is too long (max 255 characters)")
	ErrNegativeQuantity     = errors.New("quantity cannot be negative")
	ErrNonPositiveDecrement = errors.New("decrement quantity must be positive")
	ErrInsufficientStock    = errors.New("insufficient stock available")
)

const (
	MaxItemNameLength = 255
)

// Item is the inventory aggregate. quantityAvailable never goes below
// zero and quantitySold never decreases; both are mutated only through
// Decrement or an explicit administrative override.
type Item struct {
	id                uuid.UUID
	name              string
	quantityAvailable int32
	quantitySold      int32
	version           int64
}

func NewItem(id uuid.UUID, name string, quantityAvailable int32) (*Item, error) {
	if err := validateItemName(name); err != nil {
		return nil, err
	}
	if quantityAvailable < 0 {
		return nil, ErrNegativeQuantity
	}

	if id == uuid.Nil {
		id = uuid.New()
	}

	return &Item{
		id:                id,
		name:              strings.TrimSpace(name),
		quantityAvailable: quantityAvailable,
	}, nil
}

// Rehydrate reconstructs an item from a stored row. The row passed
// validation on the way in, so none runs here.
func Rehydrate(id uuid.UUID, name string, quantityAvailable, quantitySold int32, version int64) *Item {
	return &Item{
		id:                id,
		name:              name,
		quantityAvailable: quantityAvailable,
		quantitySold:      quantitySold,
		version:           version,
	}
}

// Decrement validates and applies a stock decrement against the item's
// current counters, bumping the optimistic version the same way the
// repository's guarded write does. It does not persist anything.
func (i *Item) Decrement(quantity int32) error {
	if quantity <= 0 {
		return ErrNonPositiveDecrement
	}
	if i.quantityAvailable < quantity {
		return ErrInsufficientStock
	}

	i.quantityAvailable -= quantity
	i.quantitySold += quantity
	i.version++
	return nil
}

func validateItemName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrEmptyItemName
	}
	if len(name) > MaxItemNameLength {
		return ErrItemNameTooLong
	}
	return nil
}

func (i *Item) ID() uuid.UUID            { return i.id }
func (i *Item) Name() string             { return i.name }
func (i *Item) QuantityAvailable() int32 { return i.quantityAvailable }
func (i *Item) QuantitySold() int32      { return i.quantitySold }
func (i *Item) Version() int64           { return i.version }
