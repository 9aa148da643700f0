// Package queue persists pending encode and decode jobs in SQLite.
//
// The Store owns the database connection, schema initialization, busy-retry
// handling, and the status transitions a job goes through while the run
// worker consumes it. A job is removed only after its run returns without
// error; failed jobs stay listed with their error until retried or cleared.
//
// The same database holds throughput samples recorded by the stats package.
// Schema changes bump the version in schema.go; users clear the database to
// adopt the new schema.
package queue
