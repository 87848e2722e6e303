package realtime

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

type EventType string

const (
	EventInsert EventType = "INSERT"
	EventUpdate EventType = "UPDATE"
	EventDelete EventType = "DELETE"

	// EventResync follows a change feed reconnect. Changes raised while the
	// feed was down were never delivered.
	EventResync EventType = "RESYNC"
)

var ErrInvalidEvent = errors.New("invalid change event")

// Event is a single row change published by the notify_table_change trigger.
type Event struct {
	Table  string          `json:"table"`
	Type   EventType       `json:"type"`
	Record json.RawMessage `json:"record"`
}

func ParseEvent(payload string) (Event, error) {
	var ev Event
	if err := json.Unmarshal([]byte(payload), &ev); err != nil {
		return Event{}, fmt.Errorf("%w: %v", ErrInvalidEvent, err)
	}
	if ev.Table == "" || ev.Type == "" {
		return Event{}, fmt.Errorf("%w: missing table or type", ErrInvalidEvent)
	}
	return ev, nil
}

// Decode unmarshals the changed row into v.
func (e Event) Decode(v interface{}) error {
	if len(e.Record) == 0 {
		return fmt.Errorf("%w: empty record", ErrInvalidEvent)
	}
	return json.Unmarshal(e.Record, v)
}

// Filter selects events. Empty fields match anything; Column/Value match a
// single column of the changed row by its string form. Resync events match
// every filter.
type Filter struct {
	Table  string
	Type   EventType
	Column string
	Value  string
}

func (f Filter) Match(e Event) bool {
	if e.Type == EventResync {
		return true
	}
	if f.Table != "" && f.Table != e.Table {
		return false
	}
	if f.Type != "" && f.Type != e.Type {
		return false
	}
	if f.Column == "" {
		return true
	}

	dec := json.NewDecoder(bytes.NewReader(e.Record))
	dec.UseNumber()
	var row map[string]interface{}
	if err := dec.Decode(&row); err != nil {
		return false
	}
	v, ok := row[f.Column]
	if !ok || v == nil {
		return false
	}
	return fmt.Sprint(v) == f.Value
}
