package worker

import "context"

type jobKind int

const (
	jobRun jobKind = iota
	jobStop
)

// Job is one generation call queued on behalf of a user.
type Job struct {
	kind   jobKind
	userID int64
	ctx    context.Context
	run    func(context.Context) (string, error)
	result chan jobResult
}

type jobResult struct {
	text string
	err  error
}

func (job Job) finish(text string, err error) {
	if job.result == nil {
		return
	}
	select {
	case job.result <- jobResult{text: text, err: err}:
	default:
	}
}

type userKey struct{}

// WithUser tags ctx with the user a generation call is made for, so the
// dispatcher can share workers fairly between users.
func WithUser(ctx context.Context, userID int64) context.Context {
	return context.WithValue(ctx, userKey{}, userID)
}

func userFrom(ctx context.Context) int64 {
	if id, ok := ctx.Value(userKey{}).(int64); ok {
		return id
	}
	return 0
}
