package mining

import (
	"context"
	"testing"
	"time"

	"github.com/entrhq/retrace/pkg/config"
	"github.com/entrhq/retrace/pkg/oracle"
	"github.com/entrhq/retrace/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPipelineRunJoinsDetectors(t *testing.T) {
	fake := oracle.NewFake()
	cfg := config.DefaultConfig()
	p := NewPipeline(fake, &cfg.Mining, nil)

	// Three same-shaped two-step workflow sessions, pre-segmented by id.
	var activities []types.EnrichedActivity
	for n := 0; n < 3; n++ {
		s := workflowSession(n+1, n)
		for i := range s.Activities {
			s.Activities[i].Activity.SessionID = s.SessionID
		}
		activities = append(activities, s.Activities...)
	}

	sessions, patterns := p.Run(context.Background(), "u1", activities)
	require.Len(t, sessions, 3)
	require.NotEmpty(t, patterns)

	assert.Equal(t, types.PatternSequential, patterns[0].Type, "sequential boost ranks the workflow first")
	for i := 1; i < len(patterns); i++ {
		assert.GreaterOrEqual(t, patterns[i-1].Score, patterns[i].Score)
	}
}

func TestPipelineRunEmptyInput(t *testing.T) {
	cfg := config.DefaultConfig()
	p := NewPipeline(oracle.NewFake(), &cfg.Mining, nil)

	sessions, patterns := p.Run(context.Background(), "u1", nil)
	assert.Nil(t, sessions)
	assert.Nil(t, patterns)
}

func TestPipelineRespectsTopN(t *testing.T) {
	fake := oracle.NewFake()
	cfg := config.DefaultConfig()
	cfg.Mining.MaxRankedPatterns = 1
	p := NewPipeline(fake, &cfg.Mining, nil)

	var activities []types.EnrichedActivity
	for n := 0; n < 3; n++ {
		s := workflowSession(n+1, n)
		for i := range s.Activities {
			s.Activities[i].Activity.SessionID = s.SessionID
			s.Activities[i].Activity.Timestamp = s.Activities[i].Activity.Timestamp.Add(time.Duration(n) * time.Hour)
		}
		activities = append(activities, s.Activities...)
	}

	_, patterns := p.Run(context.Background(), "u1", activities)
	assert.LessOrEqual(t, len(patterns), 1)
}
