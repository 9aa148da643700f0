package queue

import (
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Status represents the lifecycle of a job.
type Status string

const (
	StatusPending Status = "pending"
	StatusRunning Status = "running"
	StatusFailed  Status = "failed"
)

// Direction values stored for jobs and samples.
const (
	DirectionEncode = "encode"
	DirectionDecode = "decode"
)

var statusSet = map[Status]struct{}{
	StatusPending: {},
	StatusRunning: {},
	StatusFailed:  {},
}

// ParseStatus converts user input into a Status.
func ParseStatus(value string) (Status, bool) {
	status := Status(strings.ToLower(strings.TrimSpace(value)))
	_, ok := statusSet[status]
	return status, ok
}

// Job is one user request: an ordered list of files to encode or decode.
type Job struct {
	ID        int64
	Files     []string
	OutputDir string
	Encode    bool
	Archive   bool
	Status    Status
	LastError string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Direction reports "encode" or "decode".
func (j *Job) Direction() string {
	if j != nil && j.Encode {
		return DirectionEncode
	}
	return DirectionDecode
}

// DisplayName returns a short label for tables and log lines.
func (j *Job) DisplayName() string {
	if j == nil || len(j.Files) == 0 {
		return ""
	}
	name := filepath.Base(j.Files[0])
	if extra := len(j.Files) - 1; extra > 0 {
		return name + " (+" + strconv.Itoa(extra) + ")"
	}
	return name
}

// IsFailed reports whether the last run of the job returned an error.
func (j *Job) IsFailed() bool {
	return j != nil && j.Status == StatusFailed
}

// Sample is one recorded file throughput measurement.
type Sample struct {
	Direction      string
	Bytes          int64
	Elapsed        time.Duration
	BytesPerSecond float64
	RecordedAt     time.Time
}

// SampleSummary aggregates samples for one direction.
type SampleSummary struct {
	Direction             string
	Count                 int
	TotalBytes            int64
	AverageBytesPerSecond float64
}

// HealthSummary captures aggregate job counts.
type HealthSummary struct {
	Total   int
	Pending int
	Running int
	Failed  int
}
