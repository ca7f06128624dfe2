package dataset

import (
	"errors"
	"fmt"
	"io"

	"github.com/oarkflow/segtag/nlp/export"
)

// Writer validates and streams records. Call Flush before closing the
// underlying writer.
type Writer struct {
	enc export.Encoder
	n   int
}

func NewWriter(w io.Writer, f export.Format) (*Writer, error) {
	enc, err := export.NewEncoder(w, f)
	if err != nil {
		return nil, err
	}
	return &Writer{enc: enc}, nil
}

// Write refuses records that fail Validate; nothing is written for them.
func (w *Writer) Write(rec Record) error {
	if err := Validate(rec); err != nil {
		return err
	}
	if err := w.enc.Encode(rec); err != nil {
		return fmt.Errorf("encode %q: %w", rec.Word, err)
	}
	w.n++
	return nil
}

func (w *Writer) Flush() error { return w.enc.Flush() }

// Count returns the number of records written so far.
func (w *Writer) Count() int { return w.n }

// Reader iterates a record stream.
type Reader struct {
	dec export.Decoder
}

func NewReader(r io.Reader, f export.Format) (*Reader, error) {
	dec, err := export.NewDecoder(r, f)
	if err != nil {
		return nil, err
	}
	return &Reader{dec: dec}, nil
}

// Next returns the next record, or io.EOF once the stream is exhausted.
// Records are decoded but not validated.
func (r *Reader) Next() (Record, error) {
	var rec Record
	if err := r.dec.Decode(&rec); err != nil {
		if errors.Is(err, io.EOF) {
			return Record{}, io.EOF
		}
		return Record{}, fmt.Errorf("%w: %w", ErrInvalidRecord, err)
	}
	return rec, nil
}

// ReadAll drains r.
func (r *Reader) ReadAll() ([]Record, error) {
	var out []Record
	for {
		rec, err := r.Next()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, rec)
	}
}
