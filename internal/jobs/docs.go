// Package jobs provides scheduled background tasks for the delivery core.
//
// Jobs run on github.com/robfig/cron/v3 with a seconds field.
//
// # Available Jobs
//
// 1. RobotAssignmentJob - retries robot assignment for approved orders still waiting for a robot
// 2. RobotMovementJob - moves busy robots toward their pickup or drop-off point (simulation only)
// 3. NotificationRepublishJob - republishes stored notifications whose publish failed
//
// # Usage
//
//	jobManager := jobs.NewJobManager(logger, 30*time.Second,
//		jobs.Entry{Schedule: "*/5 * * * * *", Job: jobs.NewRobotAssignmentJob(assignHandler, 50, logger)},
//		jobs.Entry{Schedule: "*/30 * * * * *", Job: jobs.NewNotificationRepublishJob(dispatcher, 3, 100, logger)},
//	)
//	if err := jobManager.StartAll(); err != nil {
//		log.Fatal("Failed to start jobs:", err)
//	}
//	defer jobManager.StopAll()
//
// # Error Handling
//
// - The assignment job treats an empty fleet as a normal outcome and does not log it
// - Other failures are logged and retried on the next tick
// - An invalid schedule fails StartAll before any job runs
package jobs
