package person

import "context"

type FindParams struct {
	Q      string
	Limit  int
	Offset int
}

// Repository is the registry read/write boundary used by reconciliation.
type Repository interface {
	GetByID(ctx context.Context, id int64) (Person, error)
	// FindByPhone returns the first person, in id order, whose phone equals the normalized phone.
	FindByPhone(ctx context.Context, phone string) (Person, error)
	GetPaginated(ctx context.Context, params *FindParams) ([]Person, int64, error)
	Count(ctx context.Context) (int64, error)
	// Create inserts p under its own id and fails with ErrIDTaken on collision.
	Create(ctx context.Context, p Person) (Person, error)
	// Upsert inserts p under its own id; on collision only the last name is overwritten.
	Upsert(ctx context.Context, p Person) (Person, error)
	Update(ctx context.Context, id int64, patch Patch) (Person, error)
	MaxID(ctx context.Context) (int64, error)
	// LockSequence serializes identifier reservation until the surrounding transaction ends.
	LockSequence(ctx context.Context) error
	// SequenceValue returns the highest identifier the sequence has consumed, 0 after a restart.
	SequenceValue(ctx context.Context) (int64, error)
	// AdvanceSequence moves the persisted identifier sequence to at least id.
	AdvanceSequence(ctx context.Context, id int64) error
	DeleteAll(ctx context.Context) error
}
