package printers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/looplab/fsm"
)

const (
	// DefaultChunkSize is a conservative single-write payload for BLE links
	// without a negotiated MTU.
	DefaultChunkSize = 128
	// DefaultChunkDelay is the pause between chunks, a back-pressure
	// surrogate for a print head that cannot buffer much lookahead.
	DefaultChunkDelay = 10 * time.Millisecond
	// DefaultCopyDelay is the pause between copies of a multi-copy job.
	DefaultCopyDelay = 500 * time.Millisecond
)

// Job lifecycle states.
const (
	StatePending   = "pending"
	StateSending   = "sending"
	StateCompleted = "completed"
	StateCancelled = "cancelled"
	StateFailed    = "failed"
)

// fsm events for job state transitions.
const (
	evtStart    = "start"
	evtComplete = "complete"
	evtCancel   = "cancel"
	evtFail     = "fail"
)

// Progress reports transmission progress: the copy being sent, the total
// number of copies, and the fraction of the current copy already written.
type Progress func(copy, copies int, frac float64)

type jobOptions struct {
	chunkSize  int
	chunkDelay time.Duration
	copyDelay  time.Duration
	progress   Progress
}

type JobOption func(*jobOptions)

// WithChunkSize sets the maximum single-write payload.
func WithChunkSize(n int) JobOption {
	return func(o *jobOptions) {
		if n > 0 {
			o.chunkSize = n
		}
	}
}

// WithChunkDelay sets the inter-chunk pacing delay.
func WithChunkDelay(d time.Duration) JobOption {
	return func(o *jobOptions) {
		if d >= 0 {
			o.chunkDelay = d
		}
	}
}

// WithCopyDelay sets the pause between copies.
func WithCopyDelay(d time.Duration) JobOption {
	return func(o *jobOptions) {
		if d >= 0 {
			o.copyDelay = d
		}
	}
}

// WithProgress sets the progress callback.
func WithProgress(fn Progress) JobOption {
	return func(o *jobOptions) {
		o.progress = fn
	}
}

// Job sends one print command stream to a printer, strictly sequentially:
// no two chunks of the same job are ever in flight at once.  A Job is used
// for a single Send and is not safe for concurrent use.
type Job struct {
	id   uuid.UUID
	t    Transport
	sm   *fsm.FSM
	opts jobOptions
}

// NewJob creates a job over the given transport.
func NewJob(t Transport, opt ...JobOption) *Job {
	opts := jobOptions{
		chunkSize:  DefaultChunkSize,
		chunkDelay: DefaultChunkDelay,
		copyDelay:  DefaultCopyDelay,
	}
	for _, fn := range opt {
		fn(&opts)
	}
	j := &Job{
		id:   uuid.New(),
		t:    t,
		opts: opts,
	}
	j.sm = fsm.NewFSM(StatePending,
		fsm.Events{
			{Name: evtStart, Src: []string{StatePending}, Dst: StateSending},
			{Name: evtComplete, Src: []string{StateSending}, Dst: StateCompleted},
			{Name: evtCancel, Src: []string{StateSending}, Dst: StateCancelled},
			{Name: evtFail, Src: []string{StateSending}, Dst: StateFailed},
		},
		fsm.Callbacks{
			"enter_state": func(_ context.Context, e *fsm.Event) {
				slog.Debug("job state", "job_id", j.id, "from", e.Src, "to", e.Dst)
			},
		},
	)
	return j
}

// ID returns the job identifier.
func (j *Job) ID() uuid.UUID {
	return j.id
}

// State returns the current lifecycle state.
func (j *Job) State() string {
	return j.sm.Current()
}

// Send transmits the stream once per copy, pacing chunks and pausing between
// copies.  It fails fast when the transport is not connected.  A transport
// error or cancellation stops the job at the current chunk boundary; partial
// jobs are not resumed.
func (j *Job) Send(ctx context.Context, stream []byte, copies int) error {
	if !j.t.IsConnected() {
		return ErrNotConnected
	}
	if copies < 1 {
		copies = 1
	}
	if err := j.sm.Event(ctx, evtStart); err != nil {
		return fmt.Errorf("job already started: %w", err)
	}
	slog.Info("sending print job", "job_id", j.id, "bytes", len(stream), "copies", copies)
	for n := 1; n <= copies; n++ {
		if n > 1 {
			if err := sleepCtx(ctx, j.opts.copyDelay); err != nil {
				return j.finish(ctx, err)
			}
		}
		if err := j.sendCopy(ctx, stream, n, copies); err != nil {
			return j.finish(ctx, fmt.Errorf("copy %d/%d: %w", n, copies, err))
		}
	}
	if err := j.sm.Event(ctx, evtComplete); err != nil {
		slog.Warn("job completion transition failed", "job_id", j.id, "error", err)
	}
	return nil
}

// Feed advances the paper without printing.
func (j *Job) Feed(ctx context.Context, mm int) error {
	return j.Send(ctx, EncodeFeed(mm), 1)
}

func (j *Job) sendCopy(ctx context.Context, stream []byte, n, copies int) error {
	total := (len(stream) + j.opts.chunkSize - 1) / j.opts.chunkSize
	for i := range total {
		if err := ctx.Err(); err != nil {
			return err
		}
		off := i * j.opts.chunkSize
		end := min(off+j.opts.chunkSize, len(stream))
		if err := j.t.Write(stream[off:end]); err != nil {
			return fmt.Errorf("chunk %d/%d: %w", i+1, total, err)
		}
		if j.opts.progress != nil {
			j.opts.progress(n, copies, float64(end)/float64(len(stream)))
		}
		if i < total-1 {
			if err := sleepCtx(ctx, j.opts.chunkDelay); err != nil {
				return err
			}
		}
	}
	return nil
}

// finish records the terminal state for err and returns it.
func (j *Job) finish(ctx context.Context, err error) error {
	evt := evtFail
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		evt = evtCancel
	}
	if smErr := j.sm.Event(ctx, evt); smErr != nil {
		slog.Warn("job state transition failed", "job_id", j.id, "event", evt, "error", smErr)
	}
	return err
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
