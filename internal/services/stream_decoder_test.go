package services

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeAll(t *testing.T, body string) ([]Unit, error) {
	t.Helper()
	d := newStreamDecoder(io.NopCloser(strings.NewReader(body)))
	defer d.Close()

	var units []Unit
	for {
		u, err := d.Next()
		if errors.Is(err, io.EOF) {
			return units, nil
		}
		if err != nil {
			return units, err
		}
		units = append(units, u)
	}
}

func texts(units []Unit) []string {
	out := make([]string, 0, len(units))
	for _, u := range units {
		out = append(out, u.Text)
	}
	return out
}

const (
	unitHello = `{"candidates":[{"content":{"parts":[{"text":"Hello"}],"role":"model"}}]}`
	unitWorld = `{"candidates":[{"content":{"parts":[{"text":", world"}],"role":"model"},"finishReason":"STOP"}]}`
)

func TestStreamDecoder_JSONArray(t *testing.T) {
	body := "[" + unitHello + ",\r\n" + unitWorld + "]"

	units, err := decodeAll(t, body)
	require.NoError(t, err)
	assert.Equal(t, []string{"Hello", ", world"}, texts(units))
}

func TestStreamDecoder_ArrayWithLeadingWhitespace(t *testing.T) {
	units, err := decodeAll(t, "\n  ["+unitHello+"]\n")
	require.NoError(t, err)
	assert.Equal(t, []string{"Hello"}, texts(units))
}

func TestStreamDecoder_NDJSON(t *testing.T) {
	body := unitHello + "\n" + unitWorld + "\n"

	units, err := decodeAll(t, body)
	require.NoError(t, err)
	assert.Equal(t, []string{"Hello", ", world"}, texts(units))
}

func TestStreamDecoder_SSE(t *testing.T) {
	body := "data: " + unitHello + "\n\n" +
		": keep-alive\n\n" +
		"data: not json at all\n\n" +
		"data: " + unitWorld + "\n\n" +
		"data: [DONE]\n\n"

	units, err := decodeAll(t, body)
	require.NoError(t, err)
	assert.Equal(t, []string{"Hello", ", world"}, texts(units))
}

func TestStreamDecoder_SSEWithoutSeparators(t *testing.T) {
	// consecutive data lines arrive as one event
	body := "data: " + unitHello + "\ndata: " + unitWorld + "\n"

	units, err := decodeAll(t, body)
	require.NoError(t, err)
	assert.Equal(t, []string{"Hello", ", world"}, texts(units))
}

func TestStreamDecoder_SSECarryingArray(t *testing.T) {
	body := "data: [" + unitHello + "," + unitWorld + "]\n\n"

	units, err := decodeAll(t, body)
	require.NoError(t, err)
	assert.Equal(t, []string{"Hello", ", world"}, texts(units))
}

func TestStreamDecoder_AlternateTextPaths(t *testing.T) {
	body := `{"candidates":[{"delta":{"text":"delta"}}]}` + "\n" + `{"text":"top"}` + "\n"

	units, err := decodeAll(t, body)
	require.NoError(t, err)
	assert.Equal(t, []string{"delta", "top"}, texts(units))
}

func TestStreamDecoder_ErrorPayload(t *testing.T) {
	body := `[{"error":{"code":429,"message":"Resource has been exhausted (e.g. check quota).","status":"RESOURCE_EXHAUSTED"}}]`

	units, err := decodeAll(t, body)
	require.NoError(t, err)
	require.Len(t, units, 1)
	require.NotNil(t, units[0].Err)
	assert.Equal(t, 429, units[0].Err.Status)
	assert.Equal(t, CategoryQuota, units[0].Err.Category())
}

func TestStreamDecoder_SafetyAndPolicyBlocks(t *testing.T) {
	safety := `{"candidates":[{"content":{"parts":[{"text":"par"}]},"finishReason":"SAFETY"}]}`
	units, err := decodeAll(t, safety)
	require.NoError(t, err)
	require.Len(t, units, 1)
	assert.Equal(t, "par", units[0].Text)
	require.NotNil(t, units[0].Err)
	assert.Equal(t, CategorySafetyBlocked, units[0].Err.Category())

	policy := `{"promptFeedback":{"blockReason":"PROHIBITED_CONTENT"}}`
	units, err = decodeAll(t, policy)
	require.NoError(t, err)
	require.Len(t, units, 1)
	require.NotNil(t, units[0].Err)
	assert.Equal(t, CategoryPolicyBlocked, units[0].Err.Category())
}

func TestStreamDecoder_CorruptArrayIsTransportError(t *testing.T) {
	_, err := decodeAll(t, "["+unitHello+", {\"candidates\": [")
	assert.Error(t, err)
}

func TestStreamDecoder_TruncatedArrayEndsCleanly(t *testing.T) {
	units, err := decodeAll(t, "["+unitHello)
	require.NoError(t, err)
	assert.Equal(t, []string{"Hello"}, texts(units))
}

func TestStreamDecoder_EmptyBody(t *testing.T) {
	units, err := decodeAll(t, "")
	require.NoError(t, err)
	assert.Empty(t, units)
}

func TestStreamDecoder_SkipsWrongTypedElements(t *testing.T) {
	units, err := decodeAll(t, `["noise", `+unitHello+`]`)
	require.NoError(t, err)
	assert.Equal(t, []string{"Hello"}, texts(units))
}
