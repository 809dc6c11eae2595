package indexing

import "context"

// ItemRepository persists per-item indexing state.
type ItemRepository interface {
	GetByIDs(ctx context.Context, itemIDs []uint) (map[uint]*Item, error)
	Upsert(ctx context.Context, item *Item) error
	// ResetAllFlags clears both indexed flags on every record and returns the
	// number of records touched.
	ResetAllFlags(ctx context.Context) (int64, error)
	CountIndexed(ctx context.Context) (int64, error)
}

// JobRepository persists indexing jobs. The queue drains jobs in FIFO order
// of creation.
type JobRepository interface {
	Create(ctx context.Context, job *Job) error
	Update(ctx context.Context, job *Job) error
	GetByJobID(ctx context.Context, jobID string) (*Job, error)
	// NextActive returns the oldest non-terminal job, or nil when the queue
	// is empty.
	NextActive(ctx context.Context) (*Job, error)
	// NonTerminalItemIDs returns every item ID held by a non-terminal job,
	// for the one-job-per-item guard at enqueue.
	NonTerminalItemIDs(ctx context.Context) (map[uint]bool, error)
	// CancelAll transitions every non-terminal job to cancelled in a single
	// transaction and reports how many jobs and items were cleared.
	CancelAll(ctx context.Context) (jobsCleared int, itemsCleared int, err error)
	HasActive(ctx context.Context) (bool, error)
}
