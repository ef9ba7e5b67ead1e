package review

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseWithRepairDirectParse(t *testing.T) {
	outcome, err := ParseWithRepair(context.Background(), `{"overallScore": 4.2}`, nil, 2)
	require.NoError(t, err)
	require.Equal(t, 1, outcome.Attempts)
	require.False(t, outcome.Repaired)
	require.Equal(t, 4.2, outcome.Data["overallScore"])
}

func TestParseWithRepairStripsCodeFences(t *testing.T) {
	raw := "```json\n{\"summary\": \"good talk\"}\n```"
	outcome, err := ParseWithRepair(context.Background(), raw, nil, 2)
	require.NoError(t, err)
	require.False(t, outcome.Repaired)
	require.Equal(t, "good talk", outcome.Data["summary"])
}

func TestParseWithRepairHandlesSingleLineFence(t *testing.T) {
	raw := "```json {\"overallScore\": 4} ```"
	outcome, err := ParseWithRepair(context.Background(), raw, nil, 2)
	require.NoError(t, err)
	require.Equal(t, 4.0, outcome.Data["overallScore"])
}

func TestParseWithRepairFenceOnlyFailsCleanly(t *testing.T) {
	_, err := ParseWithRepair(context.Background(), "```", nil, 2)
	var parseErr *ParseError
	require.True(t, errors.As(err, &parseErr))
	require.Equal(t, 3, parseErr.Length)
}

func TestParseWithRepairUnterminatedFence(t *testing.T) {
	raw := "```json\n{\"summary\": \"no closing fence\"}"
	outcome, err := ParseWithRepair(context.Background(), raw, nil, 2)
	require.NoError(t, err)
	require.Equal(t, "no closing fence", outcome.Data["summary"])
}

func TestParseWithRepairExtractsObjectFromProse(t *testing.T) {
	raw := `Here is my review: {"overallScore": 3, "summary": "fine {braces} inside strings"} Hope it helps!`
	outcome, err := ParseWithRepair(context.Background(), raw, nil, 2)
	require.NoError(t, err)
	require.Equal(t, "fine {braces} inside strings", outcome.Data["summary"])
}

func TestParseWithRepairInvokesCallback(t *testing.T) {
	calls := 0
	repair := func(ctx context.Context, broken string) (string, error) {
		calls++
		require.Contains(t, broken, "overallScore")
		return `{"overallScore": 4}`, nil
	}

	outcome, err := ParseWithRepair(context.Background(), `{"overallScore": 4,,,}`, repair, 2)
	require.NoError(t, err)
	require.Equal(t, 1, calls)
	require.True(t, outcome.Repaired)
	require.Equal(t, 4.0, outcome.Data["overallScore"])
}

func TestParseWithRepairExhaustedOmitsContent(t *testing.T) {
	secret := `{"apiKey": "sk-super-secret" not json at all`
	repair := func(ctx context.Context, broken string) (string, error) {
		return "still } not { json", nil
	}

	_, err := ParseWithRepair(context.Background(), secret, repair, 2)
	require.Error(t, err)

	var parseErr *ParseError
	require.True(t, errors.As(err, &parseErr))
	require.Equal(t, len(secret), parseErr.Length)
	require.NotContains(t, err.Error(), "sk-super-secret")
	require.NotContains(t, err.Error(), "apiKey")
}

func TestParseWithRepairPropagatesRepairError(t *testing.T) {
	repair := func(ctx context.Context, broken string) (string, error) {
		return "", errors.New("provider unavailable")
	}

	_, err := ParseWithRepair(context.Background(), "not json", repair, 2)
	require.Error(t, err)
	require.Contains(t, err.Error(), "repair attempt 1")
}

func TestParseWithRepairNoCallbackFailsFast(t *testing.T) {
	_, err := ParseWithRepair(context.Background(), "not json", nil, 2)
	var parseErr *ParseError
	require.True(t, errors.As(err, &parseErr))
}
