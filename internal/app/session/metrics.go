package session

import "expvar"

var (
	metricSessionsCreated   = expvar.NewInt("sessions_created_total")
	metricCodeCollisions    = expvar.NewInt("session_code_collisions_total")
	metricJoinsTotal        = expvar.NewInt("session_joins_total")
	metricCommandsTotal     = expvar.NewInt("session_commands_total")
	metricCommandsRejected  = expvar.NewInt("session_commands_rejected_total")
	metricWriteConflicts    = expvar.NewInt("session_write_conflicts_total")
	metricSessionsSwept     = expvar.NewInt("sessions_swept_total")
	metricSubscribersActive = expvar.NewInt("session_subscribers_active")
)
