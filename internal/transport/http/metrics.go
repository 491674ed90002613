package httptransport

import "expvar"

var (
	metricHTTPCommandsTotal = expvar.NewInt("http_commands_total")
	metricHTTPCommandErrors = expvar.NewInt("http_command_errors_total")
	metricHTTPCreateErrors  = expvar.NewInt("http_session_create_errors_total")

	metricSSEConnectionsTotal  = expvar.NewInt("sse_connections_total")
	metricSSEConnectionsActive = expvar.NewInt("sse_connections_active")

	metricInviteQRTotal = expvar.NewInt("invite_qr_rendered_total")
	metricGrantsIssued  = expvar.NewInt("entitlement_grants_issued_total")
)
