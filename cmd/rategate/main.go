// RateGate drives sliding-window rate gates under load and audits that they
// never admit more than their configured rate.
//
// A gate admits at most N callers within any rolling time unit T. The
// rategate command builds the gates named in a YAML config, hammers them
// with concurrent callers, checks every trailing window against the bound
// and stores the outcome.
//
// Usage:
//
//	# Drive every configured gate with the configured load
//	rategate run
//
//	# Drive one gate for 30 seconds with 64 callers
//	rategate run --gate mailer --duration 30s --workers 64
//
//	# Validate the configuration, and keep validating on every save
//	rategate validate --watch
//
//	# List stored load-run reports
//	rategate report list --gate mailer --format json
//
//	# Show version information
//	rategate version
package main

func main() {
	Execute()
}
