package insight

import (
	"github.com/entrhq/retrace/pkg/logging"
	"github.com/entrhq/retrace/pkg/types"
)

// Notification kinds emitted by the lifecycle manager.
const (
	KindAutoCompleted     = "auto_completed"
	KindConfirmCompletion = "confirm_completion"
	KindReminder          = "reminder"
)

// Notifier receives lifecycle events destined for the host application:
// auto-completion announcements, completion confirmation requests, and
// reminder acknowledgments.
type Notifier interface {
	Notify(n types.Notification)
}

// LogNotifier writes notifications to the engine log. It is the default sink
// when the host does not register its own.
type LogNotifier struct {
	log *logging.Logger
}

// NewLogNotifier creates a notifier over the given logger, which may be nil.
func NewLogNotifier(log *logging.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

func (n *LogNotifier) Notify(ev types.Notification) {
	if n.log == nil {
		return
	}
	n.log.Infof("notification %s for insight %s (user %s): %s", ev.Kind, ev.InsightID, ev.UserID, ev.Message)
}
