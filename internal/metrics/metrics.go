package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registrations counts attendance writes by entry path and outcome.
var Registrations = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "asistencia_registrations_total",
	Help: "Attendance registrations by method (qr, profesor) and outcome.",
}, []string{"method", "outcome"})

// Logins counts login attempts by outcome.
var Logins = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "asistencia_logins_total",
	Help: "Login attempts by outcome.",
}, []string{"outcome"})
