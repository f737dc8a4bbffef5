package oracle

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenCounterEstimateMode(t *testing.T) {
	// Zero-value counter runs in estimate mode regardless of whether the
	// exact encoding is available in the test environment.
	c := &TokenCounter{}

	assert.Equal(t, 25, c.Count(strings.Repeat("a", 100)))

	long := strings.Repeat("b", 1000)
	truncated := c.Truncate(long, 10)
	assert.Len(t, truncated, 40)
	assert.Equal(t, long, c.Truncate(long, 0), "non-positive budget disables truncation")
	assert.Equal(t, "short", c.Truncate("short", 100))
}
