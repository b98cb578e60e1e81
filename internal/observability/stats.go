package observability

import "time"

// UsageStats aggregates the event log into per-request and per-tool totals.
type UsageStats struct {
	Requests       int
	Completed      int
	IntentFailures int
	ToolCalls      int
	ToolFailures   int
	ToolCounts     map[string]int
	TotalDuration  time.Duration
}

// AverageDuration returns the mean completed-request duration, or zero when
// no request completed.
func (s UsageStats) AverageDuration() time.Duration {
	if s.Completed == 0 {
		return 0
	}
	return s.TotalDuration / time.Duration(s.Completed)
}

// Aggregate folds the full event stream into usage totals.
func Aggregate(log EventLog) (UsageStats, error) {
	events, err := log.Read(EventFilter{})
	if err != nil {
		return UsageStats{}, err
	}

	stats := UsageStats{ToolCounts: make(map[string]int)}
	for _, event := range events {
		switch event.Type {
		case EventRequestReceived:
			stats.Requests++
		case EventIntentParsed:
			if failed, ok := event.Data["error"].(bool); ok && failed {
				stats.IntentFailures++
			}
		case EventToolCalled:
			stats.ToolCalls++
			if name, ok := event.Data["tool"].(string); ok {
				stats.ToolCounts[name]++
			}
			if failed, ok := event.Data["error"].(bool); ok && failed {
				stats.ToolFailures++
			}
		case EventRequestCompleted:
			stats.Completed++
			if ms, ok := event.Data["duration_ms"].(float64); ok {
				stats.TotalDuration += time.Duration(ms) * time.Millisecond
			}
		}
	}
	return stats, nil
}
