package stream

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecoderParsesFrames(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []frame
	}{
		{
			name:     "Single Complete Frame",
			input:    "event: snapshot\ndata: {\"lines\":[]}\n\n",
			expected: []frame{{name: "snapshot", data: `{"lines":[]}`}},
		},
		{
			name:  "Multiple Frames In Order",
			input: "event: snapshot\ndata: 1\n\nevent: snapshot\ndata: 2\n\n",
			expected: []frame{
				{name: "snapshot", data: "1"},
				{name: "snapshot", data: "2"},
			},
		},
		{
			name:     "Multi Line Data Joined With Newlines",
			input:    "event: snapshot\ndata: {\ndata:   \"lines\": []\ndata: }\n\n",
			expected: []frame{{name: "snapshot", data: "{\n  \"lines\": []\n}"}},
		},
		{
			name:     "Default Event Name",
			input:    "data: hello\n\n",
			expected: []frame{{name: "message", data: "hello"}},
		},
		{
			name:     "Comment Lines Skipped",
			input:    ": keepalive\nevent: snapshot\n: another comment\ndata: x\n\n",
			expected: []frame{{name: "snapshot", data: "x"}},
		},
		{
			name:     "Comment Only Block Produces Nothing",
			input:    ": ping\n\n",
			expected: nil,
		},
		{
			name:     "Carriage Returns Stripped",
			input:    "event: error\r\ndata: {\"message\":\"boom\"}\r\n\n",
			expected: []frame{{name: "error", data: `{"message":"boom"}`}},
		},
		{
			name:     "No Space After Colon",
			input:    "event:snapshot\ndata:x\n\n",
			expected: []frame{{name: "snapshot", data: "x"}},
		},
		{
			name:     "Incomplete Frame Stays Buffered",
			input:    "event: snapshot\ndata: partial",
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := &decoder{}
			got := d.feed([]byte(tt.input))
			assert.Equal(t, tt.expected, got)
		})
	}
}

// Splitting the input at every possible byte offset must yield the same
// frames as feeding it whole, delimiter splits included.
func TestDecoderArbitraryChunkBoundaries(t *testing.T) {
	input := "event: snapshot\ndata: {\"lines\":[\"a\",\"b\"]}\n\nevent: error\ndata: {\"message\":\"oops\"}\n\n"

	whole := (&decoder{}).feed([]byte(input))
	require.Len(t, whole, 2)

	for split := 1; split < len(input); split++ {
		d := &decoder{}
		var got []frame
		got = append(got, d.feed([]byte(input[:split]))...)
		got = append(got, d.feed([]byte(input[split:]))...)

		assert.Equalf(t, whole, got, "split at byte %d", split)
		assert.Emptyf(t, d.buf, "residual buffer after split at byte %d", split)
	}
}

func TestDecoderSplitAfterByteTen(t *testing.T) {
	input := "event: snapshot\ndata: {\"lines\":[\"a\"]}\n\n"

	d := &decoder{}
	require.Empty(t, d.feed([]byte(input[:10])))

	got := d.feed([]byte(input[10:]))
	require.Len(t, got, 1)
	assert.Equal(t, "snapshot", got[0].name)
	assert.Equal(t, `{"lines":["a"]}`, got[0].data)
	assert.Empty(t, d.buf)
}

func TestDecoderEmptyDataLinePreserved(t *testing.T) {
	d := &decoder{}
	got := d.feed([]byte("data: a\ndata:\ndata: b\n\n"))

	require.Len(t, got, 1)
	assert.Equal(t, "a\n\nb", got[0].data)
}

func TestDecoderResumesAfterBufferedRemainder(t *testing.T) {
	d := &decoder{}

	got := d.feed([]byte("event: snapshot\ndata: first\n\nevent: snap"))
	require.Len(t, got, 1)
	assert.Equal(t, "first", got[0].data)
	assert.NotEmpty(t, d.buf)

	got = d.feed([]byte("shot\ndata: second\n\n"))
	require.Len(t, got, 1)
	assert.Equal(t, "snapshot", got[0].name)
	assert.Equal(t, "second", got[0].data)
	assert.Empty(t, d.buf)
}
