// Copyright (C) 2025, Elara Project Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package metrics

// SessionMetrics bundles the counters/gauges a runtime.Session updates on
// its hot path: one per §7 error kind, plus the live PresenceVector and
// DegradationLevel.
type SessionMetrics struct {
	FramesMalformed   Counter
	TagFailures       Counter
	ReplaysDetected   Counter
	EventsQuarantined Counter
	EventsUnauthorized Counter
	QuarantineEvicted Counter
	RateLimited       Counter

	Liveness             Gauge
	Immediacy            Gauge
	Coherence            Gauge
	RelationalContinuity Gauge
	EmotionalBandwidth   Gauge
	DegradationLevel     Gauge
}

// NewSessionMetrics registers the full set of session metrics against reg
// (which may be nil for in-process-only accounting).
func NewSessionMetrics(reg *Registry) *SessionMetrics {
	const ns = "elara_session_"
	return &SessionMetrics{
		FramesMalformed:    reg.Counter(ns+"frames_malformed_total", "frames dropped for wire-parse failure"),
		TagFailures:        reg.Counter(ns+"tag_failures_total", "AEAD authentication tag mismatches"),
		ReplaysDetected:    reg.Counter(ns+"replays_detected_total", "sequence numbers rejected by a replay window"),
		EventsQuarantined:  reg.Counter(ns+"events_quarantined_total", "events held pending causal/temporal prerequisites"),
		EventsUnauthorized: reg.Counter(ns+"events_unauthorized_total", "events rejected for failed authority checks"),
		QuarantineEvicted:  reg.Counter(ns+"quarantine_evicted_total", "quarantined events evicted by age or capacity"),
		RateLimited:        reg.Counter(ns+"rate_limited_total", "events rejected by per-source rate limiting"),

		Liveness:             reg.Gauge(ns+"presence_liveness", "current PresenceVector liveness component"),
		Immediacy:            reg.Gauge(ns+"presence_immediacy", "current PresenceVector immediacy component"),
		Coherence:            reg.Gauge(ns+"presence_coherence", "current PresenceVector coherence component"),
		RelationalContinuity: reg.Gauge(ns+"presence_relational_continuity", "current PresenceVector relational-continuity component"),
		EmotionalBandwidth:   reg.Gauge(ns+"presence_emotional_bandwidth", "current PresenceVector emotional-bandwidth component"),
		DegradationLevel:     reg.Gauge(ns+"degradation_level", "current degradation level, 0 (L0) through 5 (L5)"),
	}
}
