// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package telemetry exposes Prometheus metrics and optional tracing for
// the Studio backend. All metrics use the "studio_" prefix.
package telemetry

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/AleutianAI/AleutianStudio/services/studio/events"
)

// Metrics contains pre-defined metrics for the Studio backend.
//
// Thread Safety: Safe for concurrent use after creation.
type Metrics struct {
	// ProposalsCreated counts registered proposals.
	ProposalsCreated prometheus.Counter

	// ProposalsDecided counts terminal decisions by outcome.
	ProposalsDecided *prometheus.CounterVec

	// ApplyFailures counts approve calls that failed and rolled back.
	ApplyFailures prometheus.Counter

	// ApplyDuration records filesystem apply duration in seconds.
	ApplyDuration prometheus.Histogram

	// PendingProposals tracks the current pending set size.
	PendingProposals prometheus.Gauge

	// WorkspaceDrift counts out-of-band changes to files with a
	// pending proposal.
	WorkspaceDrift prometheus.Counter
}

// NewMetrics registers the Studio metrics on a registerer.
//
// # Inputs
//
//   - reg: Target registry (nil uses the default registerer).
//
// # Outputs
//
//   - *Metrics: Registered metric set.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		ProposalsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "studio_proposals_created_total",
			Help: "Total change proposals registered.",
		}),
		ProposalsDecided: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "studio_proposals_decided_total",
			Help: "Total terminal proposal decisions by outcome.",
		}, []string{"decision"}),
		ApplyFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "studio_apply_failures_total",
			Help: "Total approve calls that failed and rolled back.",
		}),
		ApplyDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "studio_apply_duration_seconds",
			Help:    "Filesystem apply duration for approved proposals.",
			Buckets: prometheus.DefBuckets,
		}),
		PendingProposals: factory.NewGauge(prometheus.GaugeOpts{
			Name: "studio_pending_proposals",
			Help: "Current number of pending proposals.",
		}),
		WorkspaceDrift: factory.NewCounter(prometheus.CounterOpts{
			Name: "studio_workspace_drift_total",
			Help: "Out-of-band changes to files with a pending proposal.",
		}),
	}
}

// Bind subscribes the metric set to the event stream so counters track
// the proposal lifecycle without instrumenting each producer.
func (m *Metrics) Bind(e *events.Emitter) {
	e.Subscribe(func(event *events.Event) {
		switch event.Type {
		case events.TypeProposalCreated:
			m.ProposalsCreated.Inc()
		case events.TypeProposalDecision:
			if data, ok := event.Data.(events.ProposalDecisionData); ok {
				if data.Error != "" {
					m.ApplyFailures.Inc()
					return
				}
				m.ProposalsDecided.WithLabelValues(data.Action).Inc()
			}
		case events.TypeWorkspaceDrift:
			m.WorkspaceDrift.Inc()
		}
	},
		events.TypeProposalCreated,
		events.TypeProposalDecision,
		events.TypeWorkspaceDrift,
	)
}

// ObserveApply records one filesystem apply duration.
func (m *Metrics) ObserveApply(d time.Duration) {
	if m == nil {
		return
	}
	m.ApplyDuration.Observe(d.Seconds())
}

// Handler returns the gin handler serving the Prometheus scrape
// endpoint.
func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}
