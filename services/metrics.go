package services

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bündelt die Prometheus-Zähler des Dienstes. Ein nil-*Metrics ist gültig und zählt nichts.
type Metrics struct {
	goatWrites        *prometheus.CounterVec
	referencesCreated *prometheus.CounterVec
	backups           *prometheus.CounterVec
}

// NewMetrics legt die Zähler an und registriert sie bei reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		goatWrites: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "livestock_goat_writes_total",
				Help: "Total number of committed goat writes by operation.",
			},
			[]string{"op"},
		),
		referencesCreated: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "livestock_references_created_total",
				Help: "Total number of vaccine and disease rows created on demand.",
			},
			[]string{"kind"},
		),
		backups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "livestock_backups_total",
				Help: "Total number of database backup runs by result.",
			},
			[]string{"result"},
		),
	}
	reg.MustRegister(m.goatWrites, m.referencesCreated, m.backups)
	return m
}

func (m *Metrics) goatWritten(op string) {
	if m == nil {
		return
	}
	m.goatWrites.WithLabelValues(op).Inc()
}

func (m *Metrics) referenceCreated(kind string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.referencesCreated.WithLabelValues(kind).Add(float64(n))
}

func (m *Metrics) backupFinished(err error) {
	if m == nil {
		return
	}
	result := "success"
	if err != nil {
		result = "failure"
	}
	m.backups.WithLabelValues(result).Inc()
}
