package history

import (
	"time"

	"github.com/convocli/convo/core"
)

// Compute aggregates statistics over a history snapshot. Token and latency
// figures come from turn metadata; turns without metadata contribute nothing
// to those aggregates.
func Compute(h core.History) core.Stats {
	st := core.Stats{TotalTurns: len(h)}
	if len(h) == 0 {
		return st
	}

	var latencies []time.Duration
	for _, t := range h {
		switch t.Role {
		case core.RoleUser:
			st.UserTurns++
		case core.RoleAssistant:
			st.AssistantTurns++
		}
		st.TotalChars += len(t.Content)
		if t.Metadata == nil {
			continue
		}
		st.TotalTokens += t.Metadata.TotalTokens
		if t.Metadata.LatencyMS > 0 {
			latencies = append(latencies, time.Duration(t.Metadata.LatencyMS)*time.Millisecond)
		}
	}
	st.AvgChars = st.TotalChars / len(h)
	st.AvgTokens = st.TotalTokens / len(h)

	if len(latencies) > 0 {
		var sum time.Duration
		st.MinLatency = latencies[0]
		for _, d := range latencies {
			sum += d
			if d < st.MinLatency {
				st.MinLatency = d
			}
			if d > st.MaxLatency {
				st.MaxLatency = d
			}
		}
		st.MeanLatency = sum / time.Duration(len(latencies))
	}

	st.FirstTurn = h[0].Timestamp
	st.LastTurn = h[len(h)-1].Timestamp
	if d := st.LastTurn.Sub(st.FirstTurn); d > 0 {
		st.Duration = d
	}
	return st
}
