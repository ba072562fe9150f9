package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	// ScansAccepted counts attendance scans that passed verification,
	// including idempotent re-scans.
	ScansAccepted = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "acadex_scans_accepted_total",
		Help: "Attendance scans accepted by the verification gate.",
	})

	// ScansRejected counts rejected scans by reason.
	ScansRejected = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "acadex_scans_rejected_total",
		Help: "Attendance scans rejected by the verification gate.",
	}, []string{"reason"})

	// SessionsStarted counts attendance sessions opened by teachers.
	SessionsStarted = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "acadex_sessions_started_total",
		Help: "Attendance sessions started.",
	})

	// SessionsEnded counts attendance sessions closed by teachers.
	SessionsEnded = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "acadex_sessions_ended_total",
		Help: "Attendance sessions ended.",
	})
)

func init() {
	prometheus.MustRegister(ScansAccepted, ScansRejected, SessionsStarted, SessionsEnded)
}
