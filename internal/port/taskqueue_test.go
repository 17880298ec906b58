package port

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ensigniasec/jobdeck/internal/action"
	"github.com/ensigniasec/jobdeck/internal/api"
)

func newQueue(t *testing.T, client *fakeClient, tasks ...action.BackgroundTask) (*TaskQueue, *recordingSink) {
	t.Helper()
	ch := make(chan action.BackgroundTask, len(tasks))
	for _, task := range tasks {
		ch <- task
	}
	sink := newRecordingSink()
	q := NewTaskQueue(client, ch, sink,
		WithTransferPollInterval(time.Millisecond),
		WithProgressInterval(0),
	)
	return q, sink
}

func TestTaskQueue_FIFO(t *testing.T) {
	client := &fakeClient{
		listPath: func(path string) ([]api.PathEntry, error) {
			return []api.PathEntry{{Name: path + "/file", Type: "file"}}, nil
		},
	}
	q, _ := newQueue(t, client, action.ListPaths{Path: "/a"}, action.ListPaths{Path: "/b"})

	first, ok := q.Poll(context.Background())
	require.True(t, ok)
	second, ok := q.Poll(context.Background())
	require.True(t, ok)

	assert.Equal(t, "/a", first.(action.PathsListed).Path)
	assert.Equal(t, "/b", second.(action.PathsListed).Path)

	require.Len(t, client.requestIDs, 2)
	assert.NotEqual(t, client.requestIDs[0], client.requestIDs[1], "every task gets its own id")
}

func TestTaskQueue_JobTasks(t *testing.T) {
	client := &fakeClient{
		getJob:    func(id string) (api.Job, error) { return api.Job{ID: id, State: api.JobRunning}, nil },
		cancelJob: func(string) error { return nil },
	}
	q, _ := newQueue(t, client, action.GetJobDetails{JobID: "42"}, action.CancelJob{JobID: "42"})

	got, ok := q.Poll(context.Background())
	require.True(t, ok)
	assert.Equal(t, action.JobDetailsLoaded{Job: api.Job{ID: "42", State: api.JobRunning}}, got)

	got, ok = q.Poll(context.Background())
	require.True(t, ok)
	assert.Equal(t, action.JobCancelled{JobID: "42"}, got)
}

func TestTaskQueue_TransferFinished(t *testing.T) {
	dir := t.TempDir()
	local := filepath.Join(dir, "out", "result.dat")
	client := &fakeClient{
		download: func(string) (api.DownloadResult, error) {
			return api.DownloadResult{Transfer: &api.TransferJob{ID: "tr-1"}}, nil
		},
		statuses: []api.TransferState{
			{Status: api.TransferPending},
			{Status: api.TransferRunning},
			{Status: api.TransferFinished, TotalBytes: 11},
		},
		transferData: "hello world",
	}
	q, sink := newQueue(t, client, action.DownloadFile{Remote: "/scratch/result.dat", Local: local})

	got, ok := q.Poll(context.Background())
	require.True(t, ok)
	assert.Equal(t, action.FileDownloaded{Remote: "/scratch/result.dat", Local: local, Bytes: 11}, got)

	assert.Equal(t, 3, client.statusCalls)
	assert.Equal(t, 1, client.fetchCalls)

	data, err := os.ReadFile(local)
	require.NoError(t, err)
	assert.Equal(t, "hello world", string(data))
	assert.NoFileExists(t, local+PartialSuffix)

	msgs := progressMessages(sink.all())
	require.GreaterOrEqual(t, len(msgs), 3)
	assert.Equal(t, "/scratch/result.dat: transfer pending", msgs[0])
	assert.Equal(t, "/scratch/result.dat: transfer running", msgs[1])

	last := sink.all()[len(sink.all())-1].(action.Progress)
	assert.InDelta(t, 100, last.Percent, 0.001)
}

func TestTaskQueue_TransferFailedNeverFetches(t *testing.T) {
	for _, terminal := range []api.TransferStatus{api.TransferFailed, api.TransferCancelled, api.TransferTimeout} {
		t.Run(string(terminal), func(t *testing.T) {
			local := filepath.Join(t.TempDir(), "result.dat")
			client := &fakeClient{
				download: func(string) (api.DownloadResult, error) {
					return api.DownloadResult{Transfer: &api.TransferJob{ID: "tr-2"}}, nil
				},
				statuses: []api.TransferState{
					{Status: api.TransferPending},
					{Status: terminal, Message: "quota exceeded"},
				},
			}
			q, sink := newQueue(t, client, action.DownloadFile{Remote: "/big", Local: local})

			got, ok := q.Poll(context.Background())
			require.True(t, ok)
			errAction, isErr := got.(action.Error)
			require.True(t, isErr, "got %#v", got)
			assert.Contains(t, errAction.Message, string(terminal))
			assert.Contains(t, errAction.Message, "quota exceeded")
			assert.NotEmpty(t, errAction.Suggestion)

			assert.Equal(t, 0, client.fetchCalls)
			assert.NoFileExists(t, local)

			var failed []action.TaskFailed
			for _, a := range sink.all() {
				if f, ok := a.(action.TaskFailed); ok {
					failed = append(failed, f)
				}
			}
			assert.Len(t, failed, 1)
		})
	}
}

func TestTaskQueue_UnknownTransferStatusIsAnError(t *testing.T) {
	client := &fakeClient{
		download: func(string) (api.DownloadResult, error) {
			return api.DownloadResult{Transfer: &api.TransferJob{ID: "tr-3"}}, nil
		},
		statuses: []api.TransferState{{Status: "exploded"}},
	}
	q, _ := newQueue(t, client, action.DownloadFile{Remote: "/x", Local: filepath.Join(t.TempDir(), "x")})

	got, ok := q.Poll(context.Background())
	require.True(t, ok)
	assert.IsType(t, action.Error{}, got)
	assert.Equal(t, 0, client.fetchCalls)
}

func TestTaskQueue_DirectDownload(t *testing.T) {
	local := filepath.Join(t.TempDir(), "small.txt")
	client := &fakeClient{
		download: func(string) (api.DownloadResult, error) {
			return api.DownloadResult{Data: []byte("abc")}, nil
		},
	}
	q, _ := newQueue(t, client, action.DownloadFile{Remote: "/small.txt", Local: local})

	got, ok := q.Poll(context.Background())
	require.True(t, ok)
	assert.Equal(t, action.FileDownloaded{Remote: "/small.txt", Local: local, Bytes: 3}, got)
	assert.Equal(t, 0, client.statusCalls)

	data, err := os.ReadFile(local)
	require.NoError(t, err)
	assert.Equal(t, "abc", string(data))
}

func TestTaskQueue_ErrorKeepsQueueServing(t *testing.T) {
	calls := 0
	client := &fakeClient{
		listPath: func(path string) ([]api.PathEntry, error) {
			calls++
			if path == "/missing" {
				return nil, fmt.Errorf("%w: no such path", api.ErrNotFound)
			}
			return nil, nil
		},
	}
	q, _ := newQueue(t, client, action.ListPaths{Path: "/missing"}, action.ListPaths{Path: "/ok"})

	got, ok := q.Poll(context.Background())
	require.True(t, ok)
	errAction := got.(action.Error)
	assert.Contains(t, errAction.Message, "ls /missing")
	assert.Contains(t, errAction.Suggestion, "Check")

	got, ok = q.Poll(context.Background())
	require.True(t, ok)
	assert.Equal(t, action.PathsListed{Path: "/ok"}, got)
	assert.Equal(t, 2, calls)
}

func TestTaskQueue_CancelledContextYieldsNothing(t *testing.T) {
	q, _ := newQueue(t, &fakeClient{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, ok := q.Poll(ctx)
	assert.False(t, ok)
}

func TestTaskQueue_ProgressIsThrottled(t *testing.T) {
	client := &fakeClient{}
	sink := newRecordingSink()
	q := NewTaskQueue(client, nil, sink, WithProgressInterval(time.Hour))

	w := &progressWriter{ctx: context.Background(), queue: q, id: "t", label: "f", total: 100, throttle: newThrottle(time.Hour)}
	for i := 0; i < 10; i++ {
		_, err := w.Write(make([]byte, 10))
		require.NoError(t, err)
	}

	got := sink.all()
	require.Len(t, got, 1, "only the first write falls outside the interval")
	assert.InDelta(t, 10, got[0].(action.Progress).Percent, 0.001)
}

func TestTaskQueue_RejectsTargetsOutsideDownloadDir(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "downloads")
	tests := []struct {
		name  string
		local string
	}{
		{name: "parent traversal", local: filepath.Join(dir, "..", "escaped.txt")},
		{name: "sibling directory", local: filepath.Join(root, "elsewhere", "escaped.txt")},
		{name: "the directory itself", local: dir},
		{name: "empty", local: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &fakeClient{
				download: func(string) (api.DownloadResult, error) {
					t.Fatal("nothing is fetched for a rejected target")
					return api.DownloadResult{}, nil
				},
			}
			ch := make(chan action.BackgroundTask, 1)
			ch <- action.DownloadFile{Remote: "/scratch/escaped.txt", Local: tt.local}
			q := NewTaskQueue(client, ch, newRecordingSink(), WithDownloadDir(dir))

			got, ok := q.Poll(context.Background())
			require.True(t, ok)
			require.IsType(t, action.Error{}, got)
			assert.Contains(t, got.(action.Error).Message, "outside the download directory")
			assert.NoFileExists(t, filepath.Join(root, "escaped.txt"))
			assert.NoFileExists(t, filepath.Join(root, "elsewhere", "escaped.txt"))
		})
	}
}

func TestTaskQueue_DownloadInsideDownloadDir(t *testing.T) {
	dir := t.TempDir()
	local := filepath.Join(dir, "runs", "out.txt")
	client := &fakeClient{
		download: func(string) (api.DownloadResult, error) {
			return api.DownloadResult{Data: []byte("ok")}, nil
		},
	}
	ch := make(chan action.BackgroundTask, 1)
	ch <- action.DownloadFile{Remote: "/out.txt", Local: local}
	q := NewTaskQueue(client, ch, newRecordingSink(), WithDownloadDir(dir))

	got, ok := q.Poll(context.Background())
	require.True(t, ok)
	assert.Equal(t, action.FileDownloaded{Remote: "/out.txt", Local: local, Bytes: 2}, got)
	assert.FileExists(t, local)
}
