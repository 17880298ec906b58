package api

import "time"

// JobState is the scheduler state of a job.
type JobState string

const (
	JobPending   JobState = "PENDING"
	JobRunning   JobState = "RUNNING"
	JobCompleted JobState = "COMPLETED"
	JobFailed    JobState = "FAILED"
	JobCancelled JobState = "CANCELLED"
	JobTimeout   JobState = "TIMEOUT"
)

// Job is a scheduler job.
type Job struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	System      string     `json:"system"`
	User        string     `json:"user,omitempty"`
	State       JobState   `json:"state"`
	SubmittedAt time.Time  `json:"submitted_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	EndedAt     *time.Time `json:"ended_at,omitempty"`
	ExitCode    *int       `json:"exit_code,omitempty"`
	WorkDir     string     `json:"work_dir,omitempty"`
}

// System is a compute system exposed by the API.
type System struct {
	Name        string `json:"name"`
	Status      string `json:"status"`
	Description string `json:"description,omitempty"`
}

// PathEntry is one item of a remote directory listing.
type PathEntry struct {
	Name       string    `json:"name"`
	Type       string    `json:"type"` // "file", "dir" or "link"
	Size       int64     `json:"size"`
	ModifiedAt time.Time `json:"modified_at"`
}

// IsDir reports whether the entry is a directory.
func (e PathEntry) IsDir() bool { return e.Type == "dir" }

// TransferStatus is the state of a server-side transfer job.
type TransferStatus string

const (
	TransferPending   TransferStatus = "pending"
	TransferRunning   TransferStatus = "running"
	TransferFinished  TransferStatus = "finished"
	TransferCancelled TransferStatus = "cancelled"
	TransferFailed    TransferStatus = "failed"
	TransferTimeout   TransferStatus = "timeout"
)

// Terminal reports whether no further status change is expected.
func (s TransferStatus) Terminal() bool {
	switch s {
	case TransferFinished, TransferCancelled, TransferFailed, TransferTimeout:
		return true
	default:
		return false
	}
}

// TransferJob identifies a server-side transfer created for a large download.
type TransferJob struct {
	ID         string `json:"transfer_id"`
	TotalBytes int64  `json:"total_bytes,omitempty"`
}

// TransferState is a snapshot of a transfer job.
type TransferState struct {
	Status     TransferStatus `json:"status"`
	Message    string         `json:"message,omitempty"`
	TotalBytes int64          `json:"total_bytes,omitempty"`
}

// DownloadResult abstracts 200 vs 202 for downloads: exactly one field is set.
type DownloadResult struct {
	Data     []byte       // i.e. 200 response
	Transfer *TransferJob // i.e. 202 response
}
