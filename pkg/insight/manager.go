// Package insight turns ranked behavior patterns into actionable insights
// and manages their lifecycle: incremental mining runs, session re-linking,
// tab-completion tracking, and user actions.
package insight

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/entrhq/retrace/pkg/browser"
	"github.com/entrhq/retrace/pkg/config"
	"github.com/entrhq/retrace/pkg/logging"
	"github.com/entrhq/retrace/pkg/mining"
	"github.com/entrhq/retrace/pkg/oracle"
	"github.com/entrhq/retrace/pkg/store"
	"github.com/entrhq/retrace/pkg/types"
	"github.com/gobwas/glob"
)

// Manager owns one user's insight state: stores, the mining pipeline, the
// deferred-completion task registry, and the session URL index of the most
// recent run. The host constructs one Manager per user and serializes calls
// into it; the internal mutex exists only because deferred checks fire on
// scheduler goroutines.
type Manager struct {
	userID   string
	cfg      *config.Config
	oracle   oracle.Oracle
	log      *logging.Logger
	notifier Notifier
	sched    Scheduler
	clock    Clock
	browser  browser.Controller

	activities *store.ActivityStore
	analyses   *store.AnalysisStore
	insights   *store.InsightStore
	metadata   *store.MetadataStore

	pipeline *mining.Pipeline
	ignore   []glob.Glob

	mu sync.Mutex

	// sessionURLs indexes distinct URLs per session id, refreshed on every
	// mining run. Sessions are not persisted; each insight carries the URL
	// set of its linked sessions so completion percentages survive restarts.
	sessionURLs map[string][]string

	// checks holds the cancellable deferred completion check per insight id.
	checks map[string]CancelFunc

	// reminded guards against duplicate reminder acknowledgments.
	reminded map[string]bool
}

// Option customizes manager construction.
type Option func(*Manager)

// WithNotifier replaces the default log-backed notification sink.
func WithNotifier(n Notifier) Option {
	return func(m *Manager) { m.notifier = n }
}

// WithScheduler replaces the time.AfterFunc scheduler, letting tests fire
// deferred checks deterministically.
func WithScheduler(s Scheduler) Option {
	return func(m *Manager) { m.sched = s }
}

// WithClock replaces the wall clock.
func WithClock(c Clock) Option {
	return func(m *Manager) { m.clock = c }
}

// WithBrowser wires the tab controller used to execute insight actions.
func WithBrowser(b browser.Controller) Option {
	return func(m *Manager) { m.browser = b }
}

// NewManager wires a per-user manager over the configured data directory.
func NewManager(userID string, cfg *config.Config, o oracle.Oracle, log *logging.Logger, opts ...Option) *Manager {
	m := &Manager{
		userID:      userID,
		cfg:         cfg,
		oracle:      o,
		log:         log,
		notifier:    NewLogNotifier(log),
		sched:       NewScheduler(),
		clock:       NewClock(),
		activities:  store.NewActivityStore(cfg.DataDir, userID),
		analyses:    store.NewAnalysisStore(cfg.DataDir, userID),
		insights:    store.NewInsightStore(cfg.DataDir, userID),
		metadata:    store.NewMetadataStore(cfg.DataDir, userID),
		pipeline:    mining.NewPipeline(o, &cfg.Mining, log),
		ignore:      cfg.IgnoreGlobs(),
		sessionURLs: make(map[string][]string),
		checks:      make(map[string]CancelFunc),
		reminded:    make(map[string]bool),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Run executes one incremental mining pass and returns the user's full
// insight set. Activities at or before the last generation timestamp are
// skipped; when nothing new exists the persisted insights are returned
// without any detector or oracle work.
func (m *Manager) Run(ctx context.Context) ([]types.ProactiveInsight, error) {
	meta, err := m.metadata.Load()
	if err != nil {
		return nil, fmt.Errorf("load generation metadata: %w", err)
	}

	all, err := m.activities.LoadRecent(m.cfg.Mining.RecentPartitions)
	if err != nil {
		return nil, fmt.Errorf("load activities: %w", err)
	}
	fresh := activitiesAfter(all, meta.LastGenerationTimestamp)
	if len(fresh) == 0 {
		if m.log != nil {
			m.log.Infof("no new activity for user %s since %s, returning persisted insights", m.userID, meta.LastGenerationTimestamp.Format(time.RFC3339))
		}
		return m.insights.Load()
	}

	analyses, err := m.analyses.LoadRecent(m.cfg.Mining.RecentPartitions)
	if err != nil {
		return nil, fmt.Errorf("load analyses: %w", err)
	}
	enriched := mining.Enrich(fresh, store.IndexByActivity(analyses), m.ignore)

	started := m.clock.Now()
	sessions, patterns := m.pipeline.Run(ctx, m.userID, enriched)

	m.mu.Lock()
	defer m.mu.Unlock()

	m.indexSessionURLs(sessions)

	generated := Generate(m.userID, patterns, m.clock.Now())

	existing, err := m.insights.Load()
	if err != nil {
		return nil, fmt.Errorf("load insights: %w", err)
	}
	merged := mergeInsights(generated, existing)
	merged = m.relinkSessions(ctx, merged, sessions)
	merged = store.DedupeInsights(merged)
	for i := range merged {
		m.stampLinkedSessionURLs(&merged[i])
	}

	if err := m.insights.Save(merged); err != nil {
		return nil, fmt.Errorf("save insights: %w", err)
	}

	// The incremental cursor advances to the last loaded activity's own
	// timestamp, not wall-clock time, so backfilled data is not skipped.
	meta.LastGenerationTimestamp = fresh[len(fresh)-1].Timestamp
	if len(all) > 0 {
		meta.LastActivityTimestamp = all[len(all)-1].Timestamp
	}
	meta.TotalInsightsGenerated += len(generated)
	if err := m.metadata.Save(meta); err != nil {
		return nil, fmt.Errorf("save generation metadata: %w", err)
	}

	if m.log != nil {
		m.log.Infof("run for user %s: %d fresh activities, %d sessions, %d patterns, %d new insights (%d total) in %s",
			m.userID, len(fresh), len(sessions), len(patterns), len(generated), len(merged), m.clock.Now().Sub(started))
	}
	return merged, nil
}

func activitiesAfter(activities []types.Activity, cutoff time.Time) []types.Activity {
	var fresh []types.Activity
	for i := range activities {
		if activities[i].Timestamp.After(cutoff) {
			fresh = append(fresh, activities[i])
		}
	}
	return fresh
}

func (m *Manager) indexSessionURLs(sessions []types.BrowsingSession) {
	for i := range sessions {
		m.sessionURLs[sessions[i].SessionID] = sessions[i].DistinctURLs()
	}
}

// stampLinkedSessionURLs merges the indexed URL sets of the insight's linked
// sessions into its persisted URL set, so completion percentages survive a
// restart of the process that mined those sessions.
func (m *Manager) stampLinkedSessionURLs(ins *types.ProactiveInsight) {
	seen := make(map[string]struct{}, len(ins.LinkedSessionURLs))
	for _, u := range ins.LinkedSessionURLs {
		seen[u] = struct{}{}
	}
	for _, sessionID := range ins.LinkedSessionIDs {
		for _, u := range m.sessionURLs[sessionID] {
			if _, ok := seen[u]; ok {
				continue
			}
			seen[u] = struct{}{}
			ins.LinkedSessionURLs = append(ins.LinkedSessionURLs, u)
		}
	}
}

// mergeInsights is the run merge rule: the freshly generated set plus every
// existing insight that is already in progress or completed. Stale pending
// insights are dropped; a still-relevant one regenerates under the same id.
func mergeInsights(generated, existing []types.ProactiveInsight) []types.ProactiveInsight {
	merged := append([]types.ProactiveInsight(nil), generated...)
	for _, ins := range existing {
		if ins.Status == types.StatusInProgress || ins.Status == types.StatusCompleted {
			merged = append(merged, ins)
		}
	}
	return merged
}

// Insights returns the persisted insight set.
func (m *Manager) Insights() ([]types.ProactiveInsight, error) {
	return m.insights.Load()
}

// InsightsByStatus returns the persisted insights with the given status.
func (m *Manager) InsightsByStatus(status types.InsightStatus) ([]types.ProactiveInsight, error) {
	all, err := m.insights.Load()
	if err != nil {
		return nil, err
	}
	var out []types.ProactiveInsight
	for _, ins := range all {
		if ins.Status == status {
			out = append(out, ins)
		}
	}
	return out, nil
}

// InsightsByType returns the persisted insights with the given type.
func (m *Manager) InsightsByType(t types.InsightType) ([]types.ProactiveInsight, error) {
	all, err := m.insights.Load()
	if err != nil {
		return nil, err
	}
	var out []types.ProactiveInsight
	for _, ins := range all {
		if ins.Type == t {
			out = append(out, ins)
		}
	}
	return out, nil
}

// ExecuteAction performs the insight's action through the tab controller and
// advances its lifecycle. Failures are reported in the ActionResult rather
// than as errors so hosts can surface them directly.
func (m *Manager) ExecuteAction(ctx context.Context, insightID string) types.ActionResult {
	m.mu.Lock()
	defer m.mu.Unlock()

	all, ins, err := m.findInsight(insightID)
	if err != nil {
		return failure(err)
	}

	var res types.ActionResult
	switch ins.ActionType {
	case types.ActionOpenURLs:
		res = m.executeOpenURLs(all, ins)
	case types.ActionResumeResearch:
		res = m.executeResume(all, ins)
	case types.ActionRemind:
		res = m.executeRemind(ins)
	case types.ActionCreateWorkflow:
		// Promotion goes through the workflow manager, which needs a name.
		return failure(fmt.Errorf("insight %s requires explicit workflow promotion", insightID))
	default:
		return failure(fmt.Errorf("insight %s has unknown action type %q", insightID, ins.ActionType))
	}
	if res.Success {
		m.recordActedUpon()
	}
	return res
}

// recordActedUpon bumps the acted-upon counter in the generation metadata.
// The counter is bookkeeping; a failure here never fails the user's action.
func (m *Manager) recordActedUpon() {
	meta, err := m.metadata.Load()
	if err == nil {
		meta.TotalInsightsActedUpon++
		err = m.metadata.Save(meta)
	}
	if err != nil && m.log != nil {
		m.log.Warnf("record acted-upon insight: %v", err)
	}
}

func (m *Manager) executeOpenURLs(all []types.ProactiveInsight, ins *types.ProactiveInsight) types.ActionResult {
	if m.browser == nil {
		return failure(ErrNoBrowser)
	}
	var last browser.TabHandle
	for _, u := range ins.ActionParams.URLs {
		handle, err := m.browser.CreateTab(u)
		if err != nil {
			return failure(fmt.Errorf("open %s: %w", u, err))
		}
		last = handle
	}
	if last != "" {
		if err := m.browser.SwitchActiveTab(last); err != nil {
			return failure(err)
		}
	}
	m.markInProgressLocked(ins)
	if err := m.insights.Save(all); err != nil {
		return failure(err)
	}
	return success(fmt.Sprintf("opened %d tabs", len(ins.ActionParams.URLs)))
}

func (m *Manager) executeResume(all []types.ProactiveInsight, ins *types.ProactiveInsight) types.ActionResult {
	if ins.Status == types.StatusCompleted {
		return failure(fmt.Errorf("insight %s: %w", ins.ID, ErrAlreadyCompleted))
	}
	if ins.ActionParams.LastURL != "" {
		if m.browser == nil {
			return failure(ErrNoBrowser)
		}
		handle, err := m.browser.CreateTab(ins.ActionParams.LastURL)
		if err != nil {
			return failure(fmt.Errorf("open %s: %w", ins.ActionParams.LastURL, err))
		}
		if err := m.browser.SwitchActiveTab(handle); err != nil {
			return failure(err)
		}
	}
	m.markInProgressLocked(ins)
	if err := m.insights.Save(all); err != nil {
		return failure(err)
	}
	return success("resumed")
}

// executeRemind acknowledges a habit reminder. Reminders never mutate the
// insight; a second acknowledgment for the same insight is rejected.
func (m *Manager) executeRemind(ins *types.ProactiveInsight) types.ActionResult {
	if m.reminded[ins.ID] {
		return failure(fmt.Errorf("insight %s: %w", ins.ID, ErrDuplicateReminder))
	}
	m.reminded[ins.ID] = true
	m.notifier.Notify(types.Notification{
		InsightID: ins.ID,
		UserID:    m.userID,
		Kind:      KindReminder,
		Message: fmt.Sprintf("Reminder set for %s on %s around %d:00",
			ins.ActionParams.Domain, time.Weekday(ins.ActionParams.DayOfWeek), ins.ActionParams.Hour),
		At: m.clock.Now(),
	})
	return success("reminder acknowledged")
}

// Complete marks the insight completed on explicit user confirmation.
// Completing an already-completed non-habit insight is rejected and mutates
// nothing; habit insights recur, so re-confirming one is a harmless no-op.
func (m *Manager) Complete(insightID string) types.ActionResult {
	m.mu.Lock()
	defer m.mu.Unlock()

	all, ins, err := m.findInsight(insightID)
	if err != nil {
		return failure(err)
	}
	if ins.Status == types.StatusCompleted {
		if ins.Type == types.InsightHabit {
			return success("already completed")
		}
		return failure(fmt.Errorf("insight %s: %w", insightID, ErrAlreadyCompleted))
	}

	m.completeLocked(ins)
	if err := m.insights.Save(all); err != nil {
		return failure(err)
	}
	return success("completed")
}

// findInsight loads the persisted set and locates the insight by id,
// returning the whole slice so the caller can save mutations back.
func (m *Manager) findInsight(insightID string) ([]types.ProactiveInsight, *types.ProactiveInsight, error) {
	all, err := m.insights.Load()
	if err != nil {
		return nil, nil, err
	}
	for i := range all {
		if all[i].ID == insightID {
			return all, &all[i], nil
		}
	}
	return nil, nil, fmt.Errorf("%s: %w", insightID, ErrNotFound)
}

// markInProgressLocked advances pending to in_progress and stamps
// lastResumedAt. Completed insights are never regressed.
func (m *Manager) markInProgressLocked(ins *types.ProactiveInsight) {
	if ins.Status == types.StatusCompleted {
		return
	}
	now := m.clock.Now()
	ins.Status = types.StatusInProgress
	ins.LastResumedAt = &now
}

// completeLocked transitions the insight to its terminal state and cancels
// any pending deferred completion check.
func (m *Manager) completeLocked(ins *types.ProactiveInsight) {
	now := m.clock.Now()
	ins.Status = types.StatusCompleted
	ins.CompletedAt = &now
	if cancel, ok := m.checks[ins.ID]; ok {
		cancel()
		delete(m.checks, ins.ID)
	}
}

func success(msg string) types.ActionResult {
	return types.ActionResult{Success: true, Message: msg}
}

func failure(err error) types.ActionResult {
	return types.ActionResult{Success: false, Error: err.Error()}
}
