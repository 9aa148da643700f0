// Package preflight provides readiness checks for the ffmpeg binary and the
// filesystem paths framestash writes to.
//
// These checks run in two contexts:
//   - The run worker calls RunAll before draining the queue. If any check
//     fails, no job is started.
//   - The CLI "framestash check" command prints every result, including the
//     dependency table from CheckSystemDeps.
package preflight
