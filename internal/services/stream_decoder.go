package services

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"folio-backend/internal/sse"
)

// streamShape is the framing of a streamed body, picked from its first
// non-space byte.
type streamShape int

const (
	shapeUnknown streamShape = iota
	shapeArray               // one top-level JSON array
	shapeObjects             // newline-delimited or concatenated JSON objects
	shapeEvents              // "data:" framed server-sent events
)

func (s streamShape) String() string {
	switch s {
	case shapeArray:
		return "array"
	case shapeObjects:
		return "ndjson"
	case shapeEvents:
		return "sse"
	}
	return "unknown"
}

// streamDecoder turns a streamGenerateContent body into units. A JSON
// syntax error in array or object framing means the body is corrupt and is
// returned as a transport error. An SSE record that does not parse is
// skipped.
type streamDecoder struct {
	body    io.ReadCloser
	br      *bufio.Reader
	shape   streamShape
	dec     *json.Decoder
	events  *sse.Scanner
	pending []Unit
}

func newStreamDecoder(body io.ReadCloser) *streamDecoder {
	return &streamDecoder{
		body: body,
		br:   bufio.NewReaderSize(body, 64*1024),
	}
}

func (d *streamDecoder) Close() error {
	return d.body.Close()
}

func (d *streamDecoder) Next() (Unit, error) {
	if d.shape == shapeUnknown {
		if err := d.sniff(); err != nil {
			return Unit{}, err
		}
	}

	switch d.shape {
	case shapeArray:
		return d.nextElement()
	case shapeObjects:
		return d.nextObject()
	default:
		return d.nextEvent()
	}
}

func (d *streamDecoder) sniff() error {
	for {
		b, err := d.br.Peek(1)
		if err != nil {
			return err
		}
		switch b[0] {
		case ' ', '\t', '\r', '\n':
			d.br.ReadByte()
			continue
		case '[':
			d.shape = shapeArray
			d.dec = json.NewDecoder(d.br)
			if _, err := d.dec.Token(); err != nil {
				return fmt.Errorf("failed to open stream array: %w", err)
			}
		case '{':
			d.shape = shapeObjects
			d.dec = json.NewDecoder(d.br)
		default:
			d.shape = shapeEvents
			d.events = sse.NewScanner(d.br)
		}
		slog.Debug("Gemini stream shape detected", "shape", d.shape.String())
		return nil
	}
}

func (d *streamDecoder) nextElement() (Unit, error) {
	for d.dec.More() {
		var r generateResponse
		if err := d.dec.Decode(&r); err != nil {
			if isTypeMismatch(err) {
				continue
			}
			return Unit{}, fmt.Errorf("malformed stream element: %w", err)
		}
		return r.unit(), nil
	}

	// closing bracket; a body cut right after an element ends the same way
	if _, err := d.dec.Token(); err != nil && !errors.Is(err, io.EOF) {
		return Unit{}, fmt.Errorf("malformed stream end: %w", err)
	}
	return Unit{}, io.EOF
}

func (d *streamDecoder) nextObject() (Unit, error) {
	for {
		var r generateResponse
		err := d.dec.Decode(&r)
		switch {
		case err == nil:
			return r.unit(), nil
		case errors.Is(err, io.EOF):
			return Unit{}, io.EOF
		case isTypeMismatch(err):
			continue
		default:
			return Unit{}, fmt.Errorf("malformed stream object: %w", err)
		}
	}
}

func (d *streamDecoder) nextEvent() (Unit, error) {
	for {
		if len(d.pending) > 0 {
			u := d.pending[0]
			d.pending = d.pending[1:]
			return u, nil
		}

		if !d.events.Next() {
			if err := d.events.Err(); err != nil {
				return Unit{}, err
			}
			return Unit{}, io.EOF
		}

		data := strings.TrimSpace(d.events.Event().Data)
		if data == "" || data == "[DONE]" {
			continue
		}

		responses, err := decodeResponses([]byte(data))
		if err != nil {
			slog.Debug("Skipping unparsable stream record", "error", err, "bytes", len(data))
		}
		for i := range responses {
			d.pending = append(d.pending, responses[i].unit())
		}
	}
}

// decodeResponses reads every JSON value in data. Arrays are flattened into
// their elements. Values decoded before an error are still returned.
func decodeResponses(data []byte) ([]generateResponse, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	var out []generateResponse
	for {
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			if errors.Is(err, io.EOF) {
				return out, nil
			}
			return out, err
		}

		raw = bytes.TrimSpace(raw)
		if len(raw) > 0 && raw[0] == '[' {
			var arr []generateResponse
			if err := json.Unmarshal(raw, &arr); err != nil {
				return out, err
			}
			out = append(out, arr...)
			continue
		}

		var r generateResponse
		if err := json.Unmarshal(raw, &r); err != nil {
			if isTypeMismatch(err) {
				continue
			}
			return out, err
		}
		out = append(out, r)
	}
}

// isTypeMismatch reports a well-formed JSON value of an unexpected type. The
// decoder has consumed it, so reading can go on.
func isTypeMismatch(err error) bool {
	var ute *json.UnmarshalTypeError
	return errors.As(err, &ute)
}
