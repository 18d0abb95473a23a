// Package report defines persisted load-run reports and the storage
// contract their backends implement.
//
// A Report is built from a loadgen.Result with FromResult. Backends live in
// the storage subpackage (in-memory and SQLite); the retention subpackage
// prunes old reports on a cron schedule.
package report
