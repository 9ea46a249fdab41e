package activity

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIsSensitiveOption(t *testing.T) {
	require.True(t, IsSensitiveOption("smtp_password"))
	require.True(t, IsSensitiveOption("API_KEY"))
	require.True(t, IsSensitiveOption("stripe_secret"))
	require.True(t, IsSensitiveOption("auth_token"))
	require.False(t, IsSensitiveOption("blogname"))
	require.False(t, IsSensitiveOption(""))
}

func TestSanitizeOptionValueMasksSensitiveValues(t *testing.T) {
	out := SanitizeOptionValue(DefaultMasker(), "smtp_password", "hunter2-long")
	require.NotEqual(t, "hunter2-long", out)

	out = SanitizeOptionValue(nil, "api_key", map[string]any{"live": "sk_live_123"})
	require.NotEqual(t, `{"live":"sk_live_123"}`, out)
}

func TestSanitizeOptionValuePassesThroughOtherOptions(t *testing.T) {
	require.Equal(t, "My Site", SanitizeOptionValue(DefaultMasker(), "blogname", "My Site"))
	require.Nil(t, SanitizeOptionValue(DefaultMasker(), "smtp_password", nil))
}
