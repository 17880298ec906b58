package port

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ensigniasec/jobdeck/internal/action"
	"github.com/ensigniasec/jobdeck/internal/api"
)

// LogTailer follows the output of one job at a time. Sending a job id switches
// to that job; sending "" stops tailing. Requests are applied on the next poll.
type LogTailer struct {
	client   api.RemoteClient
	requests <-chan string
	interval time.Duration

	jobID  string
	offset int64
}

// NewLogTailer returns an idle tailer fetching new output every interval.
func NewLogTailer(client api.RemoteClient, requests <-chan string, interval time.Duration) *LogTailer {
	return &LogTailer{client: client, requests: requests, interval: interval}
}

func (t *LogTailer) Name() string { return "logs" }

func (t *LogTailer) Interval() time.Duration {
	if t.jobID == "" {
		return 0
	}
	return t.interval
}

// Watching returns the job currently tailed, or "".
func (t *LogTailer) Watching() string { return t.jobID }

func (t *LogTailer) Poll(ctx context.Context) (action.Action, bool) {
	if t.jobID == "" {
		// Nothing to tail: wait for a request.
		select {
		case id, ok := <-t.requests:
			if !ok {
				<-ctx.Done()
				return nil, false
			}
			t.watch(id)
		case <-ctx.Done():
			return nil, false
		}
	}
	t.applyPending()
	if t.jobID == "" {
		return nil, false
	}

	text, next, err := t.client.JobOutput(ctx, t.jobID, t.offset)
	if err != nil {
		if ctx.Err() != nil {
			return nil, false
		}
		log := logrus.WithFields(logrus.Fields{"port": t.Name(), "job": t.jobID})
		if errors.Is(err, api.ErrNotFound) {
			log.Debug("job output gone, stop tailing")
			jobID := t.jobID
			t.watch("")
			return ErrorAction(fmt.Errorf("output of job %s: %w", jobID, err))
		}
		log.WithError(err).Warn("fetch job output failed")
		return nil, false
	}
	t.offset = next
	if text == "" {
		return nil, false
	}
	return action.LogAppended{JobID: t.jobID, Text: text}, true
}

// applyPending consumes queued requests without blocking; the latest wins.
func (t *LogTailer) applyPending() {
	for {
		select {
		case id, ok := <-t.requests:
			if !ok {
				return
			}
			t.watch(id)
		default:
			return
		}
	}
}

func (t *LogTailer) watch(id string) {
	if id == t.jobID {
		return
	}
	t.jobID = id
	t.offset = 0
}
