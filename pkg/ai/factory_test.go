package ai

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestFactoryBuildsEachProvider(t *testing.T) {
	cases := map[string]string{
		"openai":    ProviderOpenAI,
		"Anthropic": ProviderAnthropic,
		" gemini ":  ProviderGemini,
	}

	for tag, want := range cases {
		provider, err := New(tag, "key", zerolog.Nop())
		require.NoError(t, err, tag)
		require.Equal(t, want, provider.Name())
	}
}

func TestFactoryRejectsUnknownProvider(t *testing.T) {
	_, err := New("cohere", "key", zerolog.Nop())
	require.Error(t, err)
	require.Contains(t, err.Error(), "unknown provider")
}

func TestFactoryRequiresAPIKey(t *testing.T) {
	for _, tag := range []string{ProviderOpenAI, ProviderAnthropic, ProviderGemini} {
		_, err := New(tag, "", zerolog.Nop())
		require.Error(t, err, tag)
	}
}
