package metrics

import "time"

// RecordAnalysis records a completed analysis of the given type.
func RecordAnalysis(analysisType string) {
	AnalysesTotal.WithLabelValues(analysisType).Inc()
}

// RecordQuotaDenial records a request rejected by a quota limit.
func RecordQuotaDenial(analysisType string) {
	QuotaDenialsTotal.WithLabelValues(analysisType).Inc()
}

// RecordAICall records an AI provider call and its outcome.
func RecordAICall(provider string, success bool) {
	status := "success"
	if !success {
		status = "error"
	}
	AIAPICalls.WithLabelValues(provider, status).Inc()
}

// ObserveTranscriptionDuration records how long a transcription call took.
func ObserveTranscriptionDuration(d time.Duration) {
	TranscriptionDuration.Observe(d.Seconds())
}
