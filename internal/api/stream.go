// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// =============================================================================
// WIRE FORMAT
// =============================================================================
//
// The ask endpoint answers with newline-delimited records, each tagged by a
// single byte and a colon:
//
//	0:"chunk of answer text"     JSON-quoted text delta
//	2:{"type":"...", ...}        JSON metadata object
//	d:                           terminal marker
//
// Records can be split or merged arbitrarily across network chunks, so the
// decoder buffers the remainder of the last unterminated line between feeds.
// Unknown tags are skipped; malformed metadata records are skipped too, the
// stream itself stays usable.

// =============================================================================
// EVENTS
// =============================================================================

// EventType discriminates decoder output events.
type EventType int

const (
	// EventText carries the accumulated answer text so far.
	EventText EventType = iota
	// EventMeta carries a decoded metadata record.
	EventMeta
	// EventFinalText replaces the accumulated text wholesale.
	EventFinalText
	// EventDone marks the end of the answer. Emitted at most once.
	EventDone
)

// DocumentRef points at one knowledge-base source used for the answer.
type DocumentRef struct {
	Title string `json:"title"`
	Path  string `json:"path"`
}

// Metadata is a decoded `2:` record. Type selects which fields are set:
//
//	"conversation"        ConversationID, ConversationTitle
//	"relevant_documents"  Documents, Paths
//	"final_text"          FinalText
//	"status"              Status
type Metadata struct {
	Type              string        `json:"type"`
	ConversationID    FlexID        `json:"conversation_id"`
	ConversationTitle string        `json:"conversation_title"`
	Documents         []DocumentRef `json:"documents"`
	Paths             []string      `json:"paths"`
	FinalText         string        `json:"final_text"`
	Status            string        `json:"status"`
}

// Event is one unit of decoder output.
type Event struct {
	Type EventType
	// Text is the full accumulated answer for EventText, or the replacement
	// answer for EventFinalText.
	Text string
	// Meta is set for EventMeta.
	Meta *Metadata
}

// =============================================================================
// DECODER
// =============================================================================

// Decoder reassembles one streamed answer. It is push-driven: hand it raw
// network chunks via Feed and it returns the events each chunk completed.
// Not safe for concurrent use.
type Decoder struct {
	remainder []byte
	text      strings.Builder
	done      bool

	// Logf receives one-line diagnostics for skipped records. Nil disables.
	Logf func(format string, args ...any)
}

// NewDecoder returns an empty Decoder.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Feed consumes one network chunk and returns the events it produced.
// Bytes after an unterminated final line are buffered until the next Feed.
func (d *Decoder) Feed(chunk []byte) []Event {
	if d.done || len(chunk) == 0 {
		return nil
	}
	data := append(d.remainder, chunk...)
	var events []Event
	for {
		idx := bytes.IndexByte(data, '\n')
		if idx < 0 {
			break
		}
		line := data[:idx]
		data = data[idx+1:]
		if ev, ok := d.processLine(string(line)); ok {
			events = append(events, ev)
			if ev.Type == EventDone {
				d.remainder = nil
				return events
			}
		}
	}
	d.remainder = data
	return events
}

// Flush handles a trailing unterminated record at end of stream and returns
// any final events. Call once after the last Feed.
func (d *Decoder) Flush() []Event {
	if d.done || len(d.remainder) == 0 {
		d.remainder = nil
		return nil
	}
	line := string(d.remainder)
	d.remainder = nil
	if ev, ok := d.processLine(line); ok {
		return []Event{ev}
	}
	return nil
}

// Text returns the accumulated answer so far.
func (d *Decoder) Text() string { return d.text.String() }

// Done reports whether the terminal marker has been seen.
func (d *Decoder) Done() bool { return d.done }

func (d *Decoder) processLine(line string) (Event, bool) {
	line = strings.TrimSuffix(line, "\r")
	if len(line) < 2 || line[1] != ':' {
		if line != "" {
			d.logf("skipping unrecognized stream line (%d bytes)", len(line))
		}
		return Event{}, false
	}
	payload := line[2:]
	switch line[0] {
	case '0':
		d.text.WriteString(unquoteDelta(payload))
		return Event{Type: EventText, Text: d.text.String()}, true
	case '2':
		var meta Metadata
		if err := json.Unmarshal([]byte(payload), &meta); err != nil {
			// RELIABILITY: a single corrupt metadata record must not kill
			// the answer; skip it and keep reading.
			d.logf("skipping malformed metadata record: %v", err)
			return Event{}, false
		}
		if meta.Type == "final_text" {
			d.text.Reset()
			d.text.WriteString(meta.FinalText)
			return Event{Type: EventFinalText, Text: meta.FinalText, Meta: &meta}, true
		}
		return Event{Type: EventMeta, Meta: &meta}, true
	case 'd':
		d.done = true
		return Event{Type: EventDone, Text: d.text.String()}, true
	default:
		d.logf("skipping stream record with unknown tag %q", line[0])
		return Event{}, false
	}
}

func (d *Decoder) logf(format string, args ...any) {
	if d.Logf != nil {
		d.Logf(format, args...)
	}
}

// unquoteDelta strips the JSON quoting of a `0:` payload. The backend
// occasionally emits escape sequences strconv.Unquote rejects, so a lenient
// fallback strips the outer quotes and rewrites the common escapes by hand.
func unquoteDelta(payload string) string {
	if s, err := strconv.Unquote(payload); err == nil {
		return s
	}
	if len(payload) >= 2 && payload[0] == '"' && payload[len(payload)-1] == '"' {
		payload = payload[1 : len(payload)-1]
	}
	r := strings.NewReplacer(
		`\n`, "\n",
		`\t`, "\t",
		`\"`, `"`,
		`\\`, `\`,
	)
	return r.Replace(payload)
}

// =============================================================================
// STREAM DRIVER
// =============================================================================

// ReadStream pumps a response body through a Decoder, invoking onEvent for
// every decoded event until the terminal marker, EOF, or context cancel.
// It returns the final accumulated text.
func ReadStream(ctx context.Context, body io.Reader, onEvent func(Event)) (string, error) {
	dec := NewDecoder()
	buf := make([]byte, 8192)
	for {
		if err := ctx.Err(); err != nil {
			return dec.Text(), err
		}
		n, err := body.Read(buf)
		if n > 0 {
			for _, ev := range dec.Feed(buf[:n]) {
				onEvent(ev)
			}
			if dec.Done() {
				return dec.Text(), nil
			}
		}
		if err == io.EOF {
			for _, ev := range dec.Flush() {
				onEvent(ev)
			}
			if !dec.Done() {
				return dec.Text(), fmt.Errorf("stream ended without terminal marker")
			}
			return dec.Text(), nil
		}
		if err != nil {
			return dec.Text(), fmt.Errorf("reading stream: %w", err)
		}
	}
}
