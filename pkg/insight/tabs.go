package insight

import (
	"fmt"

	"github.com/entrhq/retrace/pkg/types"
)

// TrackOpenedTab records that the user reopened url while working on the
// insight. URLs accumulate with set semantics. Tracking a tab arms a one-shot
// deferred completion check unless one is already pending, so tracking after
// a restart still gets a check; the check is keyed by insight id and
// cancelled if the insight completes by any other path first.
func (m *Manager) TrackOpenedTab(insightID, url string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	all, ins, err := m.findInsight(insightID)
	if err != nil {
		return err
	}
	if ins.Status == types.StatusCompleted {
		return fmt.Errorf("insight %s: %w", insightID, ErrAlreadyCompleted)
	}
	for _, u := range ins.OpenedTabURLs {
		if u == url {
			return nil // already tracked
		}
	}

	ins.OpenedTabURLs = append(ins.OpenedTabURLs, url)
	if err := m.insights.Save(all); err != nil {
		return err
	}

	if _, armed := m.checks[insightID]; !armed {
		m.checks[insightID] = m.sched.AfterFunc(m.cfg.Mining.TabCheckDelay, func() {
			m.deferredCompletionCheck(insightID)
		})
	}
	return nil
}

// TabCompletionPercentage reports how much of the insight's linked browsing
// the user has reopened: opened tab count over the distinct URL count across
// linked sessions, 0 when no linked sessions or URLs are known.
func (m *Manager) TabCompletionPercentage(insightID string) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, ins, err := m.findInsight(insightID)
	if err != nil {
		return 0, err
	}
	return m.completionPercentageLocked(ins), nil
}

// completionPercentageLocked measures against the URL set stamped on the
// insight, topped up from the in-memory index for sessions linked during the
// current run but not yet re-persisted.
func (m *Manager) completionPercentageLocked(ins *types.ProactiveInsight) float64 {
	seen := make(map[string]struct{}, len(ins.LinkedSessionURLs))
	for _, u := range ins.LinkedSessionURLs {
		seen[u] = struct{}{}
	}
	for _, sessionID := range ins.LinkedSessionIDs {
		for _, u := range m.sessionURLs[sessionID] {
			seen[u] = struct{}{}
		}
	}
	if len(seen) == 0 || len(ins.OpenedTabURLs) == 0 {
		return 0
	}
	pct := float64(len(ins.OpenedTabURLs)) / float64(len(seen))
	if pct > 1 {
		pct = 1
	}
	return pct
}

// deferredCompletionCheck fires once, TabCheckDelay after the first tracked
// tab. Above the auto-complete cutoff the insight completes outright; a
// nonzero percentage below it asks the user to confirm; zero does nothing.
func (m *Manager) deferredCompletionCheck(insightID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.checks, insightID)

	all, ins, err := m.findInsight(insightID)
	if err != nil {
		if m.log != nil {
			m.log.Warnf("deferred completion check: %v", err)
		}
		return
	}
	if ins.Status == types.StatusCompleted {
		return
	}

	pct := m.completionPercentageLocked(ins)
	switch {
	case pct > m.cfg.Mining.AutoCompleteCutoff:
		m.completeLocked(ins)
		progress := pct
		ins.CompletionProgress = &progress
		if err := m.insights.Save(all); err != nil {
			if m.log != nil {
				m.log.Errorf("deferred completion check: save failed: %v", err)
			}
			return
		}
		m.notifier.Notify(types.Notification{
			InsightID: ins.ID,
			UserID:    m.userID,
			Kind:      KindAutoCompleted,
			Message:   fmt.Sprintf("Marked %q as completed: you reopened most of its pages.", ins.Title),
			Progress:  pct,
			At:        m.clock.Now(),
		})
	case pct > 0:
		m.notifier.Notify(types.Notification{
			InsightID: ins.ID,
			UserID:    m.userID,
			Kind:      KindConfirmCompletion,
			Message:   fmt.Sprintf("Did you finish %q?", ins.Title),
			Progress:  pct,
			At:        m.clock.Now(),
		})
	}
}
