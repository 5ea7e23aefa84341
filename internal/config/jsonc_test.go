package config

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCleanJSONCBlanksCommentsAndTrailingCommas(t *testing.T) {
	input := `{
  // microphone
  "audio": {"input": "zoom", /* usb */ "fallback": "default",},
  "recording": {
    "duration_ms": 10000, // ten seconds
  },
}`

	cleaned, err := cleanJSONC(input)
	require.NoError(t, err)
	require.Len(t, cleaned, len(input))
	require.NotContains(t, cleaned, "//")
	require.NotContains(t, cleaned, "/*")

	var decoded map[string]map[string]any
	require.NoError(t, json.Unmarshal([]byte(cleaned), &decoded))
	require.Equal(t, "zoom", decoded["audio"]["input"])
	require.InDelta(t, 10000, decoded["recording"]["duration_ms"], 0)
}

func TestCleanJSONCKeepsCommentMarkersInsideStrings(t *testing.T) {
	cleaned, err := cleanJSONC(`{"endpoint":"https://example.com/a//b /* x */ \"q\"",}`)
	require.NoError(t, err)
	require.Contains(t, cleaned, `https://example.com/a//b /* x */ \"q\"`)
	require.Equal(t, ' ', rune(cleaned[len(cleaned)-2]))
}

func TestCleanJSONCKeepsCommaBeforeValue(t *testing.T) {
	cleaned, err := cleanJSONC("[1, // one\n 2]")
	require.NoError(t, err)
	require.Contains(t, cleaned, "1,")
}

func TestCleanJSONCUnterminatedBlockCommentFails(t *testing.T) {
	_, err := cleanJSONC("{ /* unterminated ")
	require.ErrorIs(t, err, errUnterminatedComment)
}

func TestDecodeStrictRejectsExtraPayload(t *testing.T) {
	var payload map[string]any
	err := decodeStrict(`{"one":1}{"two":2}`, &payload)
	require.Error(t, err)
	require.Contains(t, err.Error(), "multiple JSON values")
}

func TestDecodeStrictReportsSyntaxPosition(t *testing.T) {
	var payload map[string]any
	err := decodeStrict("{\n  \"a\": 1\n  \"b\": 2\n}", &payload)
	require.Error(t, err)
	require.Contains(t, err.Error(), "line 3 column 3")
}

func TestPositionAt(t *testing.T) {
	content := "line1\nline2\nline3"
	require.Equal(t, position{line: 1, column: 1}, positionAt(content, 0))
	require.Equal(t, position{line: 1, column: 1}, positionAt(content, 1))
	require.Equal(t, position{line: 2, column: 2}, positionAt(content, 8))
	require.Equal(t, position{line: 3, column: 6}, positionAt(content, 999))
}
