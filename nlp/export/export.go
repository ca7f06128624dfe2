// Package export streams records as JSON lines or MessagePack.
package export

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/vmihailenco/msgpack/v5"
)

// Format selects the on-disk encoding of a record stream.
type Format string

const (
	JSONL   Format = "jsonl"
	MsgPack Format = "msgpack"
)

var ErrUnknownFormat = errors.New("unknown export format")

// ParseFormat accepts a format name or a file extension (".jsonl", ".mp").
func ParseFormat(s string) (Format, error) {
	switch strings.TrimPrefix(strings.ToLower(s), ".") {
	case "jsonl", "json", "ndjson":
		return JSONL, nil
	case "msgpack", "mp", "mpk":
		return MsgPack, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

// Encoder writes one value per call. Flush must be called before the
// underlying writer is closed.
type Encoder interface {
	Encode(v any) error
	Flush() error
}

// Decoder reads one value per call and returns io.EOF at the end.
type Decoder interface {
	Decode(v any) error
}

func NewEncoder(w io.Writer, f Format) (Encoder, error) {
	bw := bufio.NewWriter(w)
	switch f {
	case JSONL:
		return &jsonlEncoder{w: bw, enc: json.NewEncoder(bw)}, nil
	case MsgPack:
		return &msgpackEncoder{w: bw, enc: msgpack.NewEncoder(bw)}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, f)
}

func NewDecoder(r io.Reader, f Format) (Decoder, error) {
	br := bufio.NewReader(r)
	switch f {
	case JSONL:
		return &jsonlDecoder{dec: json.NewDecoder(br)}, nil
	case MsgPack:
		return msgpack.NewDecoder(br), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, f)
}

// ToJSON renders a single value, for logs and HTTP responses.
func ToJSON(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

type jsonlEncoder struct {
	w   *bufio.Writer
	enc *json.Encoder
}

// Encode writes v followed by a newline.
func (e *jsonlEncoder) Encode(v any) error { return e.enc.Encode(v) }
func (e *jsonlEncoder) Flush() error       { return e.w.Flush() }

type msgpackEncoder struct {
	w   *bufio.Writer
	enc *msgpack.Encoder
}

func (e *msgpackEncoder) Encode(v any) error { return e.enc.Encode(v) }
func (e *msgpackEncoder) Flush() error       { return e.w.Flush() }

type jsonlDecoder struct {
	dec *json.Decoder
}

func (d *jsonlDecoder) Decode(v any) error {
	if !d.dec.More() {
		return io.EOF
	}
	return d.dec.Decode(v)
}
