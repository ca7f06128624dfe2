package export

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type row struct {
	Word   string   `json:"word" msgpack:"word"`
	Labels []string `json:"labels" msgpack:"labels"`
}

func TestParseFormat(t *testing.T) {
	tests := map[string]Format{
		"jsonl": JSONL, ".jsonl": JSONL, "JSON": JSONL, "ndjson": JSONL,
		"msgpack": MsgPack, ".mp": MsgPack,
	}
	for in, want := range tests {
		got, err := ParseFormat(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseFormat("csv")
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

func TestJSONLIsOneObjectPerLine(t *testing.T) {
	var buf bytes.Buffer
	enc, err := NewEncoder(&buf, JSONL)
	require.NoError(t, err)
	require.NoError(t, enc.Encode(row{Word: "un", Labels: []string{"B-PREFIX", "I-PREFIX"}}))
	require.NoError(t, enc.Encode(row{Word: "a", Labels: []string{"B-ROOT"}}))
	require.NoError(t, enc.Flush())

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.JSONEq(t, `{"word":"un","labels":["B-PREFIX","I-PREFIX"]}`, lines[0])
}

func TestStreamsDecodeWhatWasEncoded(t *testing.T) {
	in := []row{
		{Word: "unhappy", Labels: []string{"B-PREFIX"}},
		{Word: "running", Labels: []string{"B-ROOT"}},
	}
	for _, f := range []Format{JSONL, MsgPack} {
		t.Run(string(f), func(t *testing.T) {
			var buf bytes.Buffer
			enc, err := NewEncoder(&buf, f)
			require.NoError(t, err)
			for _, r := range in {
				require.NoError(t, enc.Encode(r))
			}
			require.NoError(t, enc.Flush())

			dec, err := NewDecoder(&buf, f)
			require.NoError(t, err)
			var out []row
			for {
				var r row
				err := dec.Decode(&r)
				if errors.Is(err, io.EOF) {
					break
				}
				require.NoError(t, err)
				out = append(out, r)
			}
			assert.Equal(t, in, out)
		})
	}
}

func TestUnknownFormat(t *testing.T) {
	_, err := NewEncoder(io.Discard, "xml")
	assert.ErrorIs(t, err, ErrUnknownFormat)
	_, err = NewDecoder(strings.NewReader(""), "xml")
	assert.ErrorIs(t, err, ErrUnknownFormat)
}
