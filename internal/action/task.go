package action

import "fmt"

// BackgroundTask is a request for the background task queue. Tasks are sent by
// value and processed one at a time in submission order.
type BackgroundTask interface {
	isTask()
	fmt.Stringer
}

type task struct{}

func (task) isTask() {}

// ListPaths lists a remote directory.
type ListPaths struct {
	task
	Path string
}

func (t ListPaths) String() string { return "ls " + t.Path }

// DownloadFile copies a remote file to a local path.
type DownloadFile struct {
	task
	Remote, Local string
}

func (t DownloadFile) String() string { return fmt.Sprintf("download %s -> %s", t.Remote, t.Local) }

// GetJobDetails fetches a single job.
type GetJobDetails struct {
	task
	JobID string
}

func (t GetJobDetails) String() string { return "job " + t.JobID }

// CancelJob cancels a job.
type CancelJob struct {
	task
	JobID string
}

func (t CancelJob) String() string { return "cancel " + t.JobID }
