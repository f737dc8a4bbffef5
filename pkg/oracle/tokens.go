package oracle

import (
	"github.com/pkoukk/tiktoken-go"
)

// TokenCounter bounds prompt sizes before they are sent to the oracle. It
// wraps tiktoken with the cl100k_base encoding; if the encoding cannot be
// initialized it degrades to a characters/4 estimate rather than failing.
type TokenCounter struct {
	encoding *tiktoken.Tiktoken
}

// NewTokenCounter creates a token counter. The error reports why the exact
// encoder is unavailable; the returned counter is still usable in estimate
// mode.
func NewTokenCounter() (*TokenCounter, error) {
	enc, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		return &TokenCounter{}, err
	}
	return &TokenCounter{encoding: enc}, nil
}

// Count returns the token count of text.
func (c *TokenCounter) Count(text string) int {
	if c.encoding == nil {
		return len(text) / 4
	}
	return len(c.encoding.Encode(text, nil, nil))
}

// Truncate cuts text down to at most maxTokens tokens, preserving the prefix.
func (c *TokenCounter) Truncate(text string, maxTokens int) string {
	if maxTokens <= 0 {
		return text
	}
	if c.encoding == nil {
		limit := maxTokens * 4
		if len(text) <= limit {
			return text
		}
		return text[:limit]
	}
	tokens := c.encoding.Encode(text, nil, nil)
	if len(tokens) <= maxTokens {
		return text
	}
	return c.encoding.Decode(tokens[:maxTokens])
}
