// Package pipeline runs a job's files through ffmpeg one at a time.
//
// Pipeline handles a single job: optional archiving and padding for encodes,
// command construction, streaming the command and its output to the output
// writer, completion markers, and throughput samples. Worker drains the
// pending-jobs queue through a Pipeline and applies the job-level outcome:
// remove on success, record the error otherwise.
package pipeline
