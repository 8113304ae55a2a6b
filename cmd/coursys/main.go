// Coursys purges personal and stale data from the course management
// database according to each model's retention policy.
//
// Usage:
//
//	# Report what would be deleted, without deleting anything
//	coursys purge --dry-run
//
//	# Delete eligible records
//	coursys purge --config /etc/coursys/config.yaml
//
//	# Run purges on the configured cron schedule
//	coursys schedule
//
//	# List the models that will be purged and their policies
//	coursys purgers
package main

func main() {
	Execute()
}
