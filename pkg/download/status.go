package download

import "fmt"

// JobStatus is the lifecycle state of a Job.
type JobStatus int

const (
	JobNotStarted JobStatus = iota
	JobDownloading
	JobPaused
	JobFinished
	JobCanceled
	JobFaulted
)

func (s JobStatus) String() string {
	switch s {
	case JobNotStarted:
		return "NotStarted"
	case JobDownloading:
		return "Downloading"
	case JobPaused:
		return "Paused"
	case JobFinished:
		return "Finished"
	case JobCanceled:
		return "Canceled"
	case JobFaulted:
		return "Faulted"
	default:
		return fmt.Sprintf("JobStatus(%d)", int(s))
	}
}

// Terminal reports whether no further transitions happen from s.
func (s JobStatus) Terminal() bool {
	return s == JobFinished || s == JobCanceled || s == JobFaulted
}

// Status classifies a download result.
type Status int

const (
	StatusUnknown Status = iota
	StatusSuccess
	StatusSkipped
	StatusNetFailed
	StatusIOFailed
	StatusInvalidRequest
	StatusNetNotFound
	StatusCanceled
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "Success"
	case StatusSkipped:
		return "Skipped"
	case StatusNetFailed:
		return "NetFailed"
	case StatusIOFailed:
		return "IOFailed"
	case StatusInvalidRequest:
		return "InvalidRequest"
	case StatusNetNotFound:
		return "NetNotFound"
	case StatusCanceled:
		return "Canceled"
	default:
		return "Unknown"
	}
}

// jobStatus maps a result to the terminal job state it produces.
func (s Status) jobStatus() JobStatus {
	switch s {
	case StatusSuccess, StatusSkipped:
		return JobFinished
	case StatusCanceled:
		return JobCanceled
	default:
		return JobFaulted
	}
}

// Result is the terminal outcome of a Job.
type Result struct {
	Status Status
	// HTTPStatus is the response code when a response was received.
	HTTPStatus int
	Reason     string
	Err        error
	// Container holds the downloaded bytes. Whoever consumes the result
	// disposes it.
	Container Container
}

// Successful reports whether the archive was fully downloaded.
func (r *Result) Successful() bool {
	return r != nil && r.Status == StatusSuccess
}

// Progress is a bytes-done/bytes-total pair. Total is negative when unknown.
type Progress struct {
	Done  int64
	Total int64
}

// Fraction returns Done/Total in [0,1], or -1 when the total is unknown.
func (p Progress) Fraction() float64 {
	if p.Total <= 0 {
		return -1
	}
	f := float64(p.Done) / float64(p.Total)
	if f > 1 {
		f = 1
	}
	return f
}
