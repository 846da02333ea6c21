package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Greeting is the aggregate root of the greetings feature.
// It is immutable once constructed.
type Greeting struct {
	id        uuid.UUID
	name      PersonName
	message   MessageText
	createdAt time.Time
}

// NewGreeting creates a greeting for name with a fresh ID, the default message and the current UTC time.
func NewGreeting(name PersonName) Greeting {
	return Greeting{
		id:        uuid.New(),
		name:      name,
		message:   DefaultMessageFor(name),
		createdAt: normalizeTime(time.Now()),
	}
}

// ReconstructGreeting rebuilds a greeting from values that were already validated when stored.
// It performs no business validation and is meant for repository adapters only;
// request handling must go through NewGreeting.
func ReconstructGreeting(id uuid.UUID, name PersonName, message MessageText, createdAt time.Time) Greeting {
	return Greeting{
		id:        id,
		name:      name,
		message:   message,
		createdAt: normalizeTime(createdAt),
	}
}

// GreetingRecord is the flat, storage-facing shape of a greeting.
type GreetingRecord struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Message   string    `json:"message" db:"message"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Record flattens g into its storage shape.
func (g Greeting) Record() GreetingRecord {
	return GreetingRecord{
		ID:        g.id.String(),
		Name:      g.name.Value(),
		Message:   g.message.Value(),
		CreatedAt: g.createdAt,
	}
}

// RestoreGreeting maps a stored record back into a Greeting.
// Length bounds are re-checked; records that violate them yield ErrCorruptRecord.
func RestoreGreeting(rec GreetingRecord) (Greeting, error) {
	id, err := uuid.Parse(rec.ID)
	if err != nil {
		return Greeting{}, fmt.Errorf("%w: invalid id %q: %v", ErrCorruptRecord, rec.ID, err)
	}
	name, err := NewPersonName(rec.Name)
	if err != nil {
		return Greeting{}, fmt.Errorf("%w: greeting %s: %v", ErrCorruptRecord, rec.ID, err)
	}
	message, err := NewMessageText(rec.Message)
	if err != nil {
		return Greeting{}, fmt.Errorf("%w: greeting %s: %v", ErrCorruptRecord, rec.ID, err)
	}
	return ReconstructGreeting(id, name, message, rec.CreatedAt), nil
}

func (g Greeting) ID() uuid.UUID { return g.id }

func (g Greeting) Name() PersonName { return g.name }

func (g Greeting) Message() MessageText { return g.message }

func (g Greeting) CreatedAt() time.Time { return g.createdAt }

// Equal reports whether g and other hold the same values in every field.
func (g Greeting) Equal(other Greeting) bool {
	return g.id == other.id &&
		g.name == other.name &&
		g.message == other.message &&
		g.createdAt.Equal(other.createdAt)
}

// normalizeTime converts t to UTC at microsecond precision, the finest resolution every
// supported store preserves.
func normalizeTime(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}
