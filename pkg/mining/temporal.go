package mining

import (
	"fmt"
	"time"

	"github.com/entrhq/retrace/pkg/types"
	"golang.org/x/net/publicsuffix"
)

// minTemporalCount: a (weekday, hour, domain) bucket needs this many visits
// before it is a habit rather than coincidence.
const minTemporalCount = 3

type temporalBucket struct {
	dayOfWeek int
	hour      int
	domain    string
	count     int
	last      time.Time
}

// DetectTemporal mines time-of-day habits by bucketing every analyzed
// activity on (weekday, hour, registrable domain). Confidence is count/10,
// stored uncapped; the ranker caps it when scoring.
func DetectTemporal(sessions []types.BrowsingSession) []types.Pattern {
	buckets := make(map[string]*temporalBucket)
	var order []string

	for i := range sessions {
		for j := range sessions[i].Activities {
			ea := &sessions[i].Activities[j]
			if ea.Analysis == nil {
				continue
			}
			domain := registrableDomain(ea.Activity.Host())
			if domain == "" {
				continue
			}

			ts := ea.Activity.Timestamp
			key := fmt.Sprintf("%d_%d_%s", int(ts.Weekday()), ts.Hour(), domain)
			b, ok := buckets[key]
			if !ok {
				b = &temporalBucket{
					dayOfWeek: int(ts.Weekday()),
					hour:      ts.Hour(),
					domain:    domain,
				}
				buckets[key] = b
				order = append(order, key)
			}
			b.count++
			if ts.After(b.last) {
				b.last = ts
			}
		}
	}

	var patterns []types.Pattern
	for _, key := range order {
		b := buckets[key]
		if b.count < minTemporalCount {
			continue
		}
		patterns = append(patterns, types.Pattern{
			ID:   "temporal_" + key,
			Type: types.PatternTemporal,
			Temporal: &types.TemporalPattern{
				DayOfWeek:      b.dayOfWeek,
				Hour:           b.hour,
				Domain:         b.domain,
				Frequency:      b.count,
				Confidence:     float64(b.count) / 10,
				LastOccurrence: b.last,
			},
		})
	}
	return patterns
}

// registrableDomain reduces a hostname to its effective TLD plus one
// ("news.ycombinator.com" -> "ycombinator.com"), falling back to the raw
// host for names outside the public suffix list (intranet hosts, localhost).
func registrableDomain(host string) string {
	if host == "" {
		return ""
	}
	domain, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		return host
	}
	return domain
}
