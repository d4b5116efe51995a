// Portions derived from lib/llm/sse.go in Bureau.
// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package sse reads and writes Server-Sent Event streams.
package sse

import (
	"bufio"
	"io"
	"strings"
)

// Event is a single parsed event. Data joins multiple "data:" lines with
// newlines.
type Event struct {
	Type string
	Data string
}

// Scanner reads events from a stream. Events are delimited by blank lines;
// comment lines and unknown fields are ignored.
//
//	scanner := sse.NewScanner(body)
//	for scanner.Next() {
//	    handle(scanner.Event())
//	}
//	if err := scanner.Err(); err != nil { ... }
type Scanner struct {
	reader  *bufio.Reader
	current Event
	err     error
}

func NewScanner(r io.Reader) *Scanner {
	if br, ok := r.(*bufio.Reader); ok {
		return &Scanner{reader: br}
	}
	return &Scanner{reader: bufio.NewReaderSize(r, 64*1024)}
}

// Next advances to the next event. It returns false at the end of the stream
// or on a read error; call Err to tell them apart.
func (s *Scanner) Next() bool {
	if s.err != nil {
		return false
	}
	s.current = Event{}

	var dataLines []string
	var eventType string
	hasData := false

	for {
		line, err := s.reader.ReadString('\n')
		if err != nil && line == "" {
			s.err = err
			if err == io.EOF && hasData {
				s.current = Event{Type: eventType, Data: strings.Join(dataLines, "\n")}
				return true
			}
			return false
		}

		line = strings.TrimRight(line, "\r\n")

		if line == "" {
			if hasData {
				s.current = Event{Type: eventType, Data: strings.Join(dataLines, "\n")}
				return true
			}
			eventType = ""
			continue
		}

		if strings.HasPrefix(line, ":") {
			continue
		}

		field, value, hasColon := strings.Cut(line, ":")
		if hasColon {
			value = strings.TrimPrefix(value, " ")
		} else {
			field, value = line, ""
		}

		switch field {
		case "data":
			dataLines = append(dataLines, value)
			hasData = true
		case "event":
			eventType = value
		}

		// a final line without trailing newline
		if err == io.EOF {
			s.err = io.EOF
			if hasData {
				s.current = Event{Type: eventType, Data: strings.Join(dataLines, "\n")}
				return true
			}
			return false
		}
	}
}

// Event returns the event parsed by the last successful Next.
func (s *Scanner) Event() Event {
	return s.current
}

// Err returns the first read error, or nil when the stream ended cleanly.
func (s *Scanner) Err() error {
	if s.err == io.EOF {
		return nil
	}
	return s.err
}
