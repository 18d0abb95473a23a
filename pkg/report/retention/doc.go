// Package retention prunes stored reports by age and by count, either on
// demand (Pruner.Prune) or on a cron schedule (Pruner.Start).
package retention
