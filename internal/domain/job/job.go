package job

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrMissingItemID       = errors.New("job item id is required")
	ErrMissingActorID      = errors.New("job actor id is required")
	ErrNonPositiveQuantity = errors.New("job quantity must be positive")
	ErrUnparseablePayload  = errors.New("job payload is not valid JSON")
)

// Job is a single queued stock decrement. It is produced by the
// enqueue gate, carried through the Redis list as JSON and consumed by
// the worker. Field names match the wire format of the queue.
type Job struct {
	ItemID         uuid.UUID `json:"item_id"`
	Quantity       int32     `json:"quantity"`
	ActorID        string    `json:"actor_id"`
	IdempotencyKey string    `json:"idempotency_key,omitempty"`
	EnqueuedAt     time.Time `json:"enqueued_at"`
	RetryCount     int       `json:"retry_count"`
}

func New(itemID uuid.UUID, quantity int32, actorID, idempotencyKey string, now time.Time) (*Job, error) {
	j := &Job{
		ItemID:         itemID,
		Quantity:       quantity,
		ActorID:        actorID,
		IdempotencyKey: idempotencyKey,
		EnqueuedAt:     now,
	}
	if err := j.Validate(); err != nil {
		return nil, err
	}
	return j, nil
}

func (j *Job) Validate() error {
	if j.ItemID == uuid.Nil {
		return ErrMissingItemID
	}
	if j.Quantity <= 0 {
		return ErrNonPositiveQuantity
	}
	if j.ActorID == "" {
		return ErrMissingActorID
	}
	return nil
}

func (j *Job) Marshal() ([]byte, error) {
	return json.Marshal(j)
}

// Unmarshal decodes a raw queue entry. A payload that is not valid
// JSON, or that decodes to a structurally invalid job, is a poison
// message and must go to the dead-letter list.
func Unmarshal(raw []byte) (*Job, error) {
	var j Job
	if err := json.Unmarshal(raw, &j); err != nil {
		return nil, ErrUnparseablePayload
	}
	if err := j.Validate(); err != nil {
		return nil, err
	}
	return &j, nil
}

// DeadLetter wraps an unprocessable queue entry with the reason it was
// quarantined. The raw payload is preserved verbatim for redrive.
type DeadLetter struct {
	Raw        string    `json:"raw"`
	Error      string    `json:"error"`
	RetryCount int       `json:"retry_count,omitempty"`
	FailedAt   time.Time `json:"failed_at"`
}

func (d *DeadLetter) Marshal() ([]byte, error) {
	return json.Marshal(d)
}

// UnmarshalDeadLetter decodes a dead-letter envelope. Entries moved
// back to the main queue by a redrive keep this shape, so the consumer
// must be able to open it and recover the original payload.
func UnmarshalDeadLetter(raw []byte) (*DeadLetter, error) {
	var d DeadLetter
	if err := json.Unmarshal(raw, &d); err != nil {
		return nil, ErrUnparseablePayload
	}
	if d.Raw == "" {
		return nil, ErrUnparseablePayload
	}
	return &d, nil
}
