package sse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecoder_SingleChunk(t *testing.T) {
	var d Decoder
	frames := d.Write([]byte("data: {\"model\":\"a\"}\n\ndata: {\"type\":\"complete\"}\n\n"))
	require.Len(t, frames, 2)
	assert.Equal(t, `{"model":"a"}`, string(frames[0].Data))
	assert.Equal(t, `{"type":"complete"}`, string(frames[1].Data))
}

func TestDecoder_CarriesPartialLineAcrossChunks(t *testing.T) {
	var d Decoder
	frames := d.Write([]byte("data: {\"model\":\"cla"))
	assert.Empty(t, frames)

	frames = d.Write([]byte("ude4\"}\n"))
	require.Len(t, frames, 1)
	assert.Equal(t, `{"model":"claude4"}`, string(frames[0].Data))
}

// Splitting the same stream at every possible byte boundary must yield the
// same frames as delivering it whole.
func TestDecoder_ChunkBoundaryIndependence(t *testing.T) {
	stream := []byte("event: result\ndata: {\"model\":\"m1\",\"status\":\"success\"}\n\n" +
		"data: {\"type\":\"heartbeat\"}\n\n" +
		"data: {\"model\":\"m2\",\"status\":\"error\"}\n\ndata: {\"type\":\"complete\"}\n\n")

	var whole Decoder
	want := whole.Write(stream)
	want = append(want, whole.Flush()...)

	for cut := 1; cut < len(stream); cut++ {
		var d Decoder
		got := d.Write(stream[:cut])
		got = append(got, d.Write(stream[cut:])...)
		got = append(got, d.Flush()...)
		require.Equal(t, want, got, "split at byte %d", cut)
	}
}

func TestDecoder_FlushUnterminatedLine(t *testing.T) {
	var d Decoder
	assert.Empty(t, d.Write([]byte("data: {\"model\":\"tail\"}")))
	frames := d.Flush()
	require.Len(t, frames, 1)
	assert.Equal(t, `{"model":"tail"}`, string(frames[0].Data))
}

func TestDecoder_IgnoresCommentsAndBlankLines(t *testing.T) {
	var d Decoder
	frames := d.Write([]byte(": keepalive\n\n\ndata: {}\n"))
	require.Len(t, frames, 1)
	assert.Equal(t, "{}", string(frames[0].Data))
}

func TestDecoder_CRLF(t *testing.T) {
	var d Decoder
	frames := d.Write([]byte("data: {\"model\":\"m\"}\r\n\r\n"))
	require.Len(t, frames, 1)
	assert.Equal(t, `{"model":"m"}`, string(frames[0].Data))
}
