package indexing

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// JobStatus is the lifecycle state of an indexing job. Terminal states are
// done, failed and cancelled; a job never transitions backward.
type JobStatus string

const (
	JobQueued     JobStatus = "queued"
	JobProcessing JobStatus = "processing"
	JobDone       JobStatus = "done"
	JobFailed     JobStatus = "failed"
	JobCancelled  JobStatus = "cancelled"
)

// IsTerminal reports whether the status permits no further transitions.
func (s JobStatus) IsTerminal() bool {
	return s == JobDone || s == JobFailed || s == JobCancelled
}

// ItemState is the per-item submission outcome inside a job. Submission
// results are tracked per item so a wake-up that retries after a partial
// remote success never double-submits.
type ItemState string

const (
	ItemPending ItemState = "pending"
	ItemDone    ItemState = "done"
	ItemFailed  ItemState = "failed"
)

// JobItem pairs a content item with its submission outcome and the credits
// the remote actually charged for it.
type JobItem struct {
	ItemID  uint      `json:"item_id"`
	State   ItemState `json:"state"`
	Credits int       `json:"credits"`
	Reason  string    `json:"reason,omitempty"`
}

// ChunkParams are the chunking parameters a batch was submitted with.
type ChunkParams struct {
	ChunkSize      int
	OverlapPercent int
}

// Validate rejects out-of-range chunk parameters before any side effect.
func (p ChunkParams) Validate() error {
	if p.ChunkSize < 100 || p.ChunkSize > 8000 {
		return fmt.Errorf("chunk size must be between 100 and 8000, got %d", p.ChunkSize)
	}
	if p.OverlapPercent < 0 || p.OverlapPercent > 50 {
		return fmt.Errorf("overlap percent must be between 0 and 50, got %d", p.OverlapPercent)
	}
	return nil
}

// Job is one submitted indexing batch. It is owned exclusively by the queue:
// created on submission, mutated only by the drain routine.
type Job struct {
	id              uint
	jobID           string
	items           []JobItem
	params          ChunkParams
	status          JobStatus
	creditsReserved int
	creditsConsumed int
	createdAt       time.Time
	updatedAt       time.Time
}

// NewJob creates a queued job from an ordered item list. Duplicate item IDs
// are collapsed, keeping first occurrence order.
func NewJob(itemIDs []uint, params ChunkParams, creditsReserved int) (*Job, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if len(itemIDs) == 0 {
		return nil, fmt.Errorf("job requires at least one item")
	}
	if creditsReserved < 0 {
		return nil, fmt.Errorf("credits reserved cannot be negative")
	}

	seen := make(map[uint]bool, len(itemIDs))
	items := make([]JobItem, 0, len(itemIDs))
	for _, id := range itemIDs {
		if id == 0 {
			return nil, fmt.Errorf("item ID cannot be zero")
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		items = append(items, JobItem{ItemID: id, State: ItemPending})
	}

	now := time.Now().UTC()
	return &Job{
		jobID:           uuid.NewString(),
		items:           items,
		params:          params,
		status:          JobQueued,
		creditsReserved: creditsReserved,
		createdAt:       now,
		updatedAt:       now,
	}, nil
}

// ReconstructJob rebuilds a job from persistence.
func ReconstructJob(
	id uint,
	jobID string,
	items []JobItem,
	params ChunkParams,
	status JobStatus,
	creditsReserved, creditsConsumed int,
	createdAt, updatedAt time.Time,
) (*Job, error) {
	if jobID == "" {
		return nil, fmt.Errorf("job ID is required")
	}
	return &Job{
		id:              id,
		jobID:           jobID,
		items:           items,
		params:          params,
		status:          status,
		creditsReserved: creditsReserved,
		creditsConsumed: creditsConsumed,
		createdAt:       createdAt,
		updatedAt:       updatedAt,
	}, nil
}

func (j *Job) ID() uint             { return j.id }
func (j *Job) JobID() string        { return j.jobID }
func (j *Job) Items() []JobItem     { return j.items }
func (j *Job) Params() ChunkParams  { return j.params }
func (j *Job) Status() JobStatus    { return j.status }
func (j *Job) CreditsReserved() int { return j.creditsReserved }
func (j *Job) CreditsConsumed() int { return j.creditsConsumed }
func (j *Job) CreatedAt() time.Time { return j.createdAt }
func (j *Job) UpdatedAt() time.Time { return j.updatedAt }

func (j *Job) SetID(id uint) error {
	if j.id != 0 {
		return fmt.Errorf("job ID already set")
	}
	j.id = id
	return nil
}

// ItemIDs returns the ordered item list.
func (j *Job) ItemIDs() []uint {
	ids := make([]uint, len(j.items))
	for n, it := range j.items {
		ids[n] = it.ItemID
	}
	return ids
}

// PendingItems returns the items not yet submitted, in order.
func (j *Job) PendingItems() []JobItem {
	var out []JobItem
	for _, it := range j.items {
		if it.State == ItemPending {
			out = append(out, it)
		}
	}
	return out
}

// Counts returns pending/completed/failed item counts.
func (j *Job) Counts() (pending, completed, failed int) {
	for _, it := range j.items {
		switch it.State {
		case ItemPending:
			pending++
		case ItemDone:
			completed++
		case ItemFailed:
			failed++
		}
	}
	return
}

// RemainingCredits returns the reservation headroom.
func (j *Job) RemainingCredits() int {
	return j.creditsReserved - j.creditsConsumed
}

// StartProcessing transitions queued → processing. Calling it on a job that
// is already processing is a no-op so an interrupted drain can resume.
func (j *Job) StartProcessing() error {
	switch j.status {
	case JobQueued:
		j.status = JobProcessing
		j.updatedAt = time.Now().UTC()
		return nil
	case JobProcessing:
		return nil
	default:
		return fmt.Errorf("cannot start processing job in status %s", j.status)
	}
}

// MarkItemDone records a successful submission and the credits it consumed.
// Consumption above the reservation is refused; the caller must short-circuit
// the rest of the batch.
func (j *Job) MarkItemDone(itemID uint, credits int) error {
	if j.status != JobProcessing {
		return fmt.Errorf("cannot record item result on job in status %s", j.status)
	}
	if credits < 0 {
		return fmt.Errorf("credits cannot be negative")
	}
	if j.creditsConsumed+credits > j.creditsReserved {
		return fmt.Errorf("consuming %d credits would exceed reservation of %d", credits, j.creditsReserved)
	}
	for n := range j.items {
		if j.items[n].ItemID != itemID {
			continue
		}
		if j.items[n].State != ItemPending {
			// Already reflected; idempotent with respect to retried drains.
			return nil
		}
		j.items[n].State = ItemDone
		j.items[n].Credits = credits
		j.creditsConsumed += credits
		j.updatedAt = time.Now().UTC()
		return nil
	}
	return fmt.Errorf("item %d is not part of job %s", itemID, j.jobID)
}

// MarkItemFailed records a per-item submission failure without failing the
// whole job.
func (j *Job) MarkItemFailed(itemID uint, reason string) error {
	if j.status != JobProcessing {
		return fmt.Errorf("cannot record item result on job in status %s", j.status)
	}
	for n := range j.items {
		if j.items[n].ItemID != itemID {
			continue
		}
		if j.items[n].State != ItemPending {
			return nil
		}
		j.items[n].State = ItemFailed
		j.items[n].Reason = reason
		j.updatedAt = time.Now().UTC()
		return nil
	}
	return fmt.Errorf("item %d is not part of job %s", itemID, j.jobID)
}

// Finish transitions a fully-processed job to its terminal state: failed
// only when every item failed, done otherwise.
func (j *Job) Finish() error {
	if j.status != JobProcessing {
		return fmt.Errorf("cannot finish job in status %s", j.status)
	}
	pending, completed, failed := j.Counts()
	if pending > 0 {
		return fmt.Errorf("job %s still has %d pending items", j.jobID, pending)
	}
	if completed == 0 && failed > 0 {
		j.status = JobFailed
	} else {
		j.status = JobDone
	}
	j.updatedAt = time.Now().UTC()
	return nil
}

// Cancel transitions the job to cancelled. Only reachable from queued or
// processing, via the queue-wide cancel operation.
func (j *Job) Cancel() error {
	if j.status.IsTerminal() {
		return fmt.Errorf("cannot cancel job in terminal status %s", j.status)
	}
	j.status = JobCancelled
	j.updatedAt = time.Now().UTC()
	return nil
}
