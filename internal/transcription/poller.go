package transcription

import (
	"context"
	"time"
)

type JobStatus string

const (
	JobSubmitted  JobStatus = "submitted"
	JobProcessing JobStatus = "processing"
	JobCompleted  JobStatus = "completed"
	JobFailed     JobStatus = "failed"
)

// JobPollState is the explicit state of one asynchronous transcription job.
// Completed and Failed are terminal.
type JobPollState struct {
	JobID        string
	Status       JobStatus
	AttemptsMade int
	MaxAttempts  int
	Interval     time.Duration
	Deadline     time.Time
}

// PollResult is one parsed status check.
type PollResult struct {
	Status JobStatus
	// Body is the raw provider payload, meaningful once Status is terminal.
	Body []byte
	// Message carries the provider's error text when Status is JobFailed.
	Message string
}

type CheckFunc func(ctx context.Context, jobID string) (*PollResult, error)

// Poller drives a submitted job to a terminal state with a fixed interval
// and a hard attempt cap. The wait between attempts is interruptible by
// context cancellation. The clock and sleep are injectable so the state
// machine is testable without real timers.
type Poller struct {
	interval    time.Duration
	maxAttempts int

	sleep func(ctx context.Context, d time.Duration) error
	now   func() time.Time
}

func NewPoller(interval time.Duration, maxAttempts int) *Poller {
	return &Poller{
		interval:    interval,
		maxAttempts: maxAttempts,
		sleep:       sleepContext,
		now:         time.Now,
	}
}

// Wait polls until the job completes, fails, or the attempt/deadline budget
// runs out. It returns the final state and, on completion, the provider's
// terminal payload.
func (p *Poller) Wait(ctx context.Context, jobID string, check CheckFunc) (JobPollState, []byte, error) {
	state := JobPollState{
		JobID:       jobID,
		Status:      JobSubmitted,
		MaxAttempts: p.maxAttempts,
		Interval:    p.interval,
		Deadline:    p.now().Add(time.Duration(p.maxAttempts) * p.interval),
	}

	for state.AttemptsMade < p.maxAttempts && p.now().Before(state.Deadline) {
		if err := p.sleep(ctx, p.interval); err != nil {
			return state, nil, err
		}

		res, err := check(ctx, jobID)
		if err != nil {
			return state, nil, err
		}
		state.AttemptsMade++

		switch res.Status {
		case JobCompleted:
			state.Status = JobCompleted
			return state, res.Body, nil
		case JobFailed:
			state.Status = JobFailed
			msg := res.Message
			if msg == "" {
				msg = "job failed without a reason"
			}
			return state, nil, &Error{Kind: KindProvider, Message: msg}
		default:
			state.Status = JobProcessing
		}
	}

	return state, nil, &Error{
		Kind:    KindTimeout,
		Message: "job did not complete within the poll budget",
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
