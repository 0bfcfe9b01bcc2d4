// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package metrics defines the portal's Prometheus collectors.

All collectors live on a dedicated registry so tests can create isolated
instances and /metrics exposes only what the portal records plus the Go
runtime and process collectors.
*/
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "talentgate"

// Registry bundles every collector recorded by the portal.
type Registry struct {
	registry *prometheus.Registry

	// HTTPRequests counts finished requests by route pattern, method and status class.
	HTTPRequests *prometheus.CounterVec

	// HTTPDuration observes request latency by route pattern.
	HTTPDuration *prometheus.HistogramVec

	// GuardDecisions counts access guard outcomes (render, redirect_login, redirect_dashboard).
	GuardDecisions *prometheus.CounterVec

	// AssessmentGate counts gate outcomes (advance, feedback) of finished attempts by stage.
	AssessmentGate *prometheus.CounterVec

	// TimerExpired counts attempts auto-submitted on expiry, by stage.
	TimerExpired *prometheus.CounterVec

	// ActiveAttempts is the number of running assessment countdowns.
	ActiveAttempts prometheus.Gauge

	// PaymentOutcomes counts reconciled checkouts by status.
	PaymentOutcomes *prometheus.CounterVec
}

// New creates and registers all collectors.
func New() *Registry {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Registry{
		registry: registry,
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Finished HTTP requests.",
		}, []string{"route", "method", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		GuardDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "guard_decisions_total",
			Help:      "Access guard decisions.",
		}, []string{"decision"}),
		AssessmentGate: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "assessment_gate_total",
			Help:      "Assessment stage gate outcomes.",
		}, []string{"stage", "outcome"}),
		TimerExpired: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "assessment_timer_expired_total",
			Help:      "Assessment attempts auto-submitted when their countdown expired.",
		}, []string{"stage"}),
		ActiveAttempts: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "assessment_active_attempts",
			Help:      "Assessment attempts with a live countdown.",
		}),
		PaymentOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payment_outcomes_total",
			Help:      "Reconciled checkout outcomes.",
		}, []string{"status"}),
	}

	registry.MustRegister(
		m.HTTPRequests,
		m.HTTPDuration,
		m.GuardDecisions,
		m.AssessmentGate,
		m.TimerExpired,
		m.ActiveAttempts,
		m.PaymentOutcomes,
	)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
