package port

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ensigniasec/jobdeck/internal/action"
	"github.com/ensigniasec/jobdeck/internal/api"
)

// PartialSuffix marks a download still in progress.
const PartialSuffix = ".part"

const (
	defaultTransferPollInterval = 2 * time.Second
	defaultProgressInterval     = 250 * time.Millisecond
	percentComplete             = 100
)

// ErrUnsafeTarget is returned for downloads whose local path leaves the
// download directory.
var ErrUnsafeTarget = errors.New("download target outside the download directory")

// TaskQueueOption configures a TaskQueue.
type TaskQueueOption func(*TaskQueue)

// WithTransferPollInterval sets the pause between transfer status checks.
func WithTransferPollInterval(d time.Duration) TaskQueueOption {
	return func(q *TaskQueue) {
		if d > 0 {
			q.pollInterval = d
		}
	}
}

// WithProgressInterval sets the minimum interval between progress updates of one task.
func WithProgressInterval(d time.Duration) TaskQueueOption {
	return func(q *TaskQueue) { q.progressInterval = d }
}

// WithDownloadDir confines downloads to dir.
func WithDownloadDir(dir string) TaskQueueOption {
	return func(q *TaskQueue) { q.downloadDir = dir }
}

// TaskQueue executes background tasks strictly one at a time in submission
// order. Progress is reported out of band through the status sink; the poll
// result is the task outcome.
type TaskQueue struct {
	client api.RemoteClient
	tasks  <-chan action.BackgroundTask
	status Sink

	downloadDir      string
	pollInterval     time.Duration
	progressInterval time.Duration
}

// NewTaskQueue returns a queue reading tasks and reporting progress to status.
func NewTaskQueue(client api.RemoteClient, tasks <-chan action.BackgroundTask, status Sink, opts ...TaskQueueOption) *TaskQueue {
	q := &TaskQueue{
		client:           client,
		tasks:            tasks,
		status:           status,
		pollInterval:     defaultTransferPollInterval,
		progressInterval: defaultProgressInterval,
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

func (q *TaskQueue) Name() string { return "tasks" }

func (q *TaskQueue) Interval() time.Duration { return 0 }

func (q *TaskQueue) Poll(ctx context.Context) (action.Action, bool) {
	var task action.BackgroundTask
	select {
	case t, ok := <-q.tasks:
		if !ok {
			<-ctx.Done()
			return nil, false
		}
		task = t
	case <-ctx.Done():
		return nil, false
	}

	id := uuid.NewString()
	ctx = api.WithRequestID(ctx, id)
	log := logrus.WithFields(logrus.Fields{"port": q.Name(), "task": id})
	log.Debug("running ", task)

	result, err := q.execute(ctx, id, task)
	if err != nil {
		if ctx.Err() != nil {
			return nil, false
		}
		log.WithError(err).Warn("task failed")
		q.report(ctx, action.TaskFailed{TaskID: id, Message: err.Error()})
		return ErrorAction(fmt.Errorf("%s: %w", task, err))
	}
	return result, true
}

func (q *TaskQueue) execute(ctx context.Context, id string, task action.BackgroundTask) (action.Action, error) {
	switch t := task.(type) {
	case action.ListPaths:
		entries, err := q.client.ListPath(ctx, t.Path)
		if err != nil {
			return nil, err
		}
		return action.PathsListed{Path: t.Path, Entries: entries}, nil
	case action.GetJobDetails:
		job, err := q.client.GetJob(ctx, t.JobID)
		if err != nil {
			return nil, err
		}
		return action.JobDetailsLoaded{Job: job}, nil
	case action.CancelJob:
		if err := q.client.CancelJob(ctx, t.JobID); err != nil {
			return nil, err
		}
		return action.JobCancelled{JobID: t.JobID}, nil
	case action.DownloadFile:
		return q.download(ctx, id, t)
	default:
		return nil, fmt.Errorf("%w: unsupported task %T", api.ErrValidation, task)
	}
}

// download fetches t.Remote either directly or through a server-side transfer
// job, writing to a partial file that is renamed once complete.
func (q *TaskQueue) download(ctx context.Context, id string, t action.DownloadFile) (action.Action, error) {
	local, err := q.target(t.Local)
	if err != nil {
		return nil, err
	}
	t.Local = local

	res, err := q.client.Download(ctx, t.Remote)
	if err != nil {
		return nil, err
	}

	if res.Transfer == nil {
		n, err := q.save(ctx, id, t, bytes.NewReader(res.Data), int64(len(res.Data)))
		if err != nil {
			return nil, err
		}
		return action.FileDownloaded{Remote: t.Remote, Local: t.Local, Bytes: n}, nil
	}

	state, err := q.awaitTransfer(ctx, id, t.Remote, res.Transfer)
	if err != nil {
		return nil, err
	}

	body, size, err := q.client.FetchTransfer(ctx, res.Transfer.ID)
	if err != nil {
		return nil, err
	}
	defer body.Close()
	if size <= 0 {
		size = state.TotalBytes
	}
	if size <= 0 {
		size = res.Transfer.TotalBytes
	}

	n, err := q.save(ctx, id, t, body, size)
	if err != nil {
		return nil, err
	}
	return action.FileDownloaded{Remote: t.Remote, Local: t.Local, Bytes: n}, nil
}

// awaitTransfer polls the transfer job until it reaches a terminal status.
func (q *TaskQueue) awaitTransfer(ctx context.Context, id, remote string, job *api.TransferJob) (api.TransferState, error) {
	for {
		state, err := q.client.TransferStatus(ctx, job.ID)
		if err != nil {
			return state, err
		}
		switch state.Status {
		case api.TransferPending, api.TransferRunning:
			q.report(ctx, action.Progress{
				TaskID:  id,
				Message: fmt.Sprintf("%s: transfer %s", remote, state.Status),
				Percent: -1,
			})
		case api.TransferFinished:
			return state, nil
		case api.TransferCancelled, api.TransferFailed, api.TransferTimeout:
			if state.Message != "" {
				return state, fmt.Errorf("%w: transfer %s %s: %s", api.ErrTransfer, job.ID, state.Status, state.Message)
			}
			return state, fmt.Errorf("%w: transfer %s %s", api.ErrTransfer, job.ID, state.Status)
		default:
			return state, fmt.Errorf("%w: transfer %s reported unknown status %q", api.ErrTransfer, job.ID, state.Status)
		}
		if err := sleep(ctx, q.pollInterval); err != nil {
			return state, err
		}
	}
}

// target cleans local and checks that it names a file inside the download
// directory.
func (q *TaskQueue) target(local string) (string, error) {
	if local == "" || slices.Contains(strings.Split(filepath.ToSlash(local), "/"), "..") {
		return "", fmt.Errorf("%w: %q", ErrUnsafeTarget, local)
	}
	clean := filepath.Clean(local)
	if q.downloadDir == "" {
		return clean, nil
	}
	dir, err := filepath.Abs(q.downloadDir)
	if err != nil {
		return "", err
	}
	abs, err := filepath.Abs(clean)
	if err != nil {
		return "", err
	}
	rel, err := filepath.Rel(dir, abs)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %q", ErrUnsafeTarget, local)
	}
	return abs, nil
}

// save streams r into t.Local via a partial file, reporting throttled progress.
func (q *TaskQueue) save(ctx context.Context, id string, t action.DownloadFile, r io.Reader, size int64) (int64, error) {
	if err := os.MkdirAll(filepath.Dir(t.Local), 0o755); err != nil {
		return 0, fmt.Errorf("create download directory: %w", err)
	}
	partial := t.Local + PartialSuffix
	f, err := os.OpenFile(partial, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return 0, fmt.Errorf("create %s: %w", partial, err)
	}

	w := &progressWriter{
		ctx:      ctx,
		queue:    q,
		id:       id,
		label:    filepath.Base(t.Local),
		total:    size,
		throttle: newThrottle(q.progressInterval),
	}
	n, copyErr := io.Copy(io.MultiWriter(f, w), contextReader{ctx: ctx, r: r})
	closeErr := f.Close()
	if err := errors.Join(copyErr, closeErr); err != nil {
		_ = os.Remove(partial)
		return n, fmt.Errorf("write %s: %w", t.Local, err)
	}
	if err := os.Rename(partial, t.Local); err != nil {
		_ = os.Remove(partial)
		return n, fmt.Errorf("finalize %s: %w", t.Local, err)
	}
	q.report(ctx, action.Progress{TaskID: id, Message: w.label, Percent: percentComplete})
	return n, nil
}

func (q *TaskQueue) report(ctx context.Context, a action.Action) {
	if q.status == nil {
		return
	}
	if err := q.status.Send(ctx, a); err != nil {
		logrus.WithField("port", q.Name()).WithError(err).Debug("status update dropped")
	}
}

// progressWriter counts bytes and reports a percentage at most once per throttle interval.
type progressWriter struct {
	ctx      context.Context //nolint:containedctx // scoped to a single save call.
	queue    *TaskQueue
	id       string
	label    string
	total    int64
	written  int64
	throttle *throttle
}

func (w *progressWriter) Write(p []byte) (int, error) {
	w.written += int64(len(p))
	if w.throttle.allow() {
		percent := -1.0
		if w.total > 0 {
			percent = min(float64(w.written)/float64(w.total)*percentComplete, percentComplete)
		}
		w.queue.report(w.ctx, action.Progress{TaskID: w.id, Message: w.label, Percent: percent})
	}
	return len(p), nil
}

// contextReader stops a copy once ctx is done.
type contextReader struct {
	ctx context.Context //nolint:containedctx // scoped to a single copy.
	r   io.Reader
}

func (c contextReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
