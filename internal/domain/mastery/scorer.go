package mastery

// DefaultAverageLatencyMs is assumed when a record has no latency history.
const DefaultAverageLatencyMs = 30000.0

// Grade converts a raw answer event into an SM-2 recall quality grade (0–5)
// by comparing the observed latency against the record's rolling average.
//
// Incorrect answers score 0–2 (slower is worse), correct answers score 3–5
// (faster is better). The result is monotonic in latency within each
// correctness branch.
func Grade(correct bool, latencyMs, avgLatencyMs float64) int {
	if avgLatencyMs <= 0 {
		avgLatencyMs = DefaultAverageLatencyMs
	}

	if !correct {
		switch {
		case latencyMs > 2*avgLatencyMs:
			return 0
		case latencyMs > 1.5*avgLatencyMs:
			return 1
		default:
			return 2
		}
	}

	switch {
	case latencyMs < 0.5*avgLatencyMs:
		return 5
	case latencyMs < 0.75*avgLatencyMs:
		return 4
	default:
		return 3
	}
}
