package mining

import (
	"context"
	"sync"
	"time"

	"github.com/entrhq/retrace/pkg/config"
	"github.com/entrhq/retrace/pkg/logging"
	"github.com/entrhq/retrace/pkg/oracle"
	"github.com/entrhq/retrace/pkg/types"
)

// Pipeline runs the full mining pass for one batch of enriched activities:
// segmentation, the four pattern detectors in parallel, then ranking.
type Pipeline struct {
	oracle    oracle.Oracle
	cfg       *config.MiningConfig
	log       *logging.Logger
	segmenter *Segmenter
}

// NewPipeline wires a pipeline. The logger may be nil.
func NewPipeline(o oracle.Oracle, cfg *config.MiningConfig, log *logging.Logger) *Pipeline {
	return &Pipeline{
		oracle:    o,
		cfg:       cfg,
		log:       log,
		segmenter: NewSegmenter(o, log),
	}
}

// Run segments the activities into sessions and returns them alongside the
// ranked patterns mined from them. The detectors are independent and run
// concurrently; each already bounds its own oracle fan-out.
func (p *Pipeline) Run(ctx context.Context, userID string, activities []types.EnrichedActivity) ([]types.BrowsingSession, []types.Pattern) {
	sessions := p.segmenter.Segment(ctx, userID, activities)
	if len(sessions) == 0 {
		return nil, nil
	}

	var (
		wg          sync.WaitGroup
		sequential  []types.Pattern
		topic       []types.Pattern
		abandonment []types.Pattern
		temporal    []types.Pattern
	)
	wg.Add(4)
	go func() {
		defer wg.Done()
		sequential = DetectSequential(ctx, p.oracle, p.log, sessions)
	}()
	go func() {
		defer wg.Done()
		topic = DetectTopic(ctx, p.oracle, p.log, sessions, p.cfg.MaxTopicGroups)
	}()
	go func() {
		defer wg.Done()
		abandonment = DetectAbandonment(ctx, p.oracle, p.log, sessions, p.cfg.MaxAbandonmentCandidates, p.cfg.AbandonedCutoff)
	}()
	go func() {
		defer wg.Done()
		temporal = DetectTemporal(sessions)
	}()
	wg.Wait()

	patterns := make([]types.Pattern, 0, len(sequential)+len(topic)+len(abandonment)+len(temporal))
	patterns = append(patterns, sequential...)
	patterns = append(patterns, topic...)
	patterns = append(patterns, abandonment...)
	patterns = append(patterns, temporal...)

	if p.log != nil {
		p.log.Infof("mined %d sessions into %d patterns (%d seq, %d topic, %d abandoned, %d temporal)",
			len(sessions), len(patterns), len(sequential), len(topic), len(abandonment), len(temporal))
	}

	return sessions, Rank(patterns, time.Now(), p.cfg.MaxRankedPatterns)
}
