package port

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"

	"github.com/ensigniasec/jobdeck/internal/action"
	"github.com/ensigniasec/jobdeck/internal/api"
)

var errNotImplemented = errors.New("not implemented")

// fakeClient is an in-memory api.RemoteClient. Unset funcs fail.
type fakeClient struct {
	mu sync.Mutex

	listJobs     func() ([]api.Job, error)
	listSystems  func() ([]api.System, error)
	getJob       func(id string) (api.Job, error)
	cancelJob    func(id string) error
	listPath     func(path string) ([]api.PathEntry, error)
	download     func(path string) (api.DownloadResult, error)
	statuses     []api.TransferState
	transferData string
	output       func(id string, offset int64) (string, int64, error)

	statusCalls int
	fetchCalls  int
	requestIDs  []string
}

var _ api.RemoteClient = (*fakeClient)(nil)

func (f *fakeClient) record(ctx context.Context) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if id, ok := api.RequestIDFromContext(ctx); ok {
		f.requestIDs = append(f.requestIDs, id)
	}
}

func (f *fakeClient) ListJobs(ctx context.Context) ([]api.Job, error) {
	if f.listJobs == nil {
		return nil, errNotImplemented
	}
	return f.listJobs()
}

func (f *fakeClient) ListSystems(ctx context.Context) ([]api.System, error) {
	if f.listSystems == nil {
		return nil, errNotImplemented
	}
	return f.listSystems()
}

func (f *fakeClient) GetJob(ctx context.Context, id string) (api.Job, error) {
	f.record(ctx)
	if f.getJob == nil {
		return api.Job{}, errNotImplemented
	}
	return f.getJob(id)
}

func (f *fakeClient) CancelJob(ctx context.Context, id string) error {
	f.record(ctx)
	if f.cancelJob == nil {
		return errNotImplemented
	}
	return f.cancelJob(id)
}

func (f *fakeClient) ListPath(ctx context.Context, path string) ([]api.PathEntry, error) {
	f.record(ctx)
	if f.listPath == nil {
		return nil, errNotImplemented
	}
	return f.listPath(path)
}

func (f *fakeClient) Download(ctx context.Context, path string) (api.DownloadResult, error) {
	f.record(ctx)
	if f.download == nil {
		return api.DownloadResult{}, errNotImplemented
	}
	return f.download(path)
}

func (f *fakeClient) TransferStatus(ctx context.Context, transferID string) (api.TransferState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.statusCalls >= len(f.statuses) {
		return api.TransferState{}, errors.New("no more statuses")
	}
	s := f.statuses[f.statusCalls]
	f.statusCalls++
	return s, nil
}

func (f *fakeClient) FetchTransfer(ctx context.Context, transferID string) (io.ReadCloser, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetchCalls++
	return io.NopCloser(strings.NewReader(f.transferData)), int64(len(f.transferData)), nil
}

func (f *fakeClient) JobOutput(ctx context.Context, id string, offset int64) (string, int64, error) {
	if f.output == nil {
		return "", offset, errNotImplemented
	}
	return f.output(id, offset)
}

// recordingSink collects actions sent by ports.
type recordingSink struct {
	mu      sync.Mutex
	actions []action.Action
	sent    chan struct{}
}

func newRecordingSink() *recordingSink {
	return &recordingSink{sent: make(chan struct{}, 1024)}
}

func (s *recordingSink) Send(ctx context.Context, a action.Action) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	s.actions = append(s.actions, a)
	s.mu.Unlock()
	select {
	case s.sent <- struct{}{}:
	default:
	}
	return nil
}

func (s *recordingSink) all() []action.Action {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]action.Action(nil), s.actions...)
}

func progressMessages(as []action.Action) []string {
	var out []string
	for _, a := range as {
		if p, ok := a.(action.Progress); ok {
			out = append(out, p.Message)
		}
	}
	return out
}
