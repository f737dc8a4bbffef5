package insight

import "errors"

// Sentinel errors returned by manager operations. Callers match with
// errors.Is; user-facing surfaces translate them into ActionResult errors.
var (
	ErrNotFound          = errors.New("insight not found")
	ErrAlreadyCompleted  = errors.New("insight already completed")
	ErrDuplicateReminder = errors.New("reminder already acknowledged")
	ErrNoBrowser         = errors.New("no browser controller configured")
)
