package oracle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClientBaseURLResolution(t *testing.T) {
	t.Run("empty option keeps the default", func(t *testing.T) {
		c, err := NewClient("sk-test", WithBaseURL(""))
		require.NoError(t, err)
		assert.Equal(t, DefaultBaseURL, c.baseURL)
	})

	t.Run("empty option preserves the env fallback", func(t *testing.T) {
		// An unset config value passed straight through by the host must not
		// shadow OPENAI_BASE_URL.
		t.Setenv("OPENAI_BASE_URL", "https://proxy.example/v1")
		c, err := NewClient("sk-test", WithBaseURL(""))
		require.NoError(t, err)
		assert.Equal(t, "https://proxy.example/v1", c.baseURL)
	})

	t.Run("explicit option wins over env", func(t *testing.T) {
		t.Setenv("OPENAI_BASE_URL", "https://proxy.example/v1")
		c, err := NewClient("sk-test", WithBaseURL("https://other.example/v1/"))
		require.NoError(t, err)
		assert.Equal(t, "https://other.example/v1", c.baseURL, "trailing slash trimmed")
	})
}

func TestNewClientRequiresAPIKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	_, err := NewClient("")
	assert.Error(t, err)

	t.Setenv("OPENAI_API_KEY", "sk-env")
	c, err := NewClient("")
	require.NoError(t, err)
	assert.Equal(t, "sk-env", c.apiKey)
}
