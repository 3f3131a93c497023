package history

import (
	"encoding/json"

	"github.com/vango-dev/waypoint/internal/errors"
)

// ScrollPosition is a captured scroll offset.
type ScrollPosition struct {
	Left float64 `json:"left"`
	Top  float64 `json:"top"`
}

// State is persisted with every history entry.
type State struct {
	// Back is the previous unit, empty when there is none.
	Back string

	// Current is the unit of this entry.
	Current string

	// Forward is the next unit, filled in when the entry is left by a push.
	Forward string

	// Replace is true when the entry was written by a replace.
	Replace bool

	// Scroll holds the offsets captured when the entry was left, nil when none.
	Scroll *ScrollPosition

	// Position is the index of the entry in the platform's stack.
	Position int

	// Data is caller-supplied extra state.
	Data map[string]any
}

var (
	// ErrInvalidState is returned when persisted state cannot be decoded.
	ErrInvalidState = errors.New("W211")

	// ErrWriteFailed is returned when the platform rejects a state write.
	ErrWriteFailed = errors.New("W210")
)

// wireState mirrors the browser representation: absent back/forward are null
// and an absent scroll is false.
type wireState struct {
	Back     *string         `json:"back"`
	Current  string          `json:"current"`
	Forward  *string         `json:"forward"`
	Replace  bool            `json:"replace"`
	Scroll   json.RawMessage `json:"scroll"`
	Position int             `json:"position"`
	Data     map[string]any  `json:"data,omitempty"`
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// MarshalJSON implements json.Marshaler.
func (s State) MarshalJSON() ([]byte, error) {
	w := wireState{
		Back:     optional(s.Back),
		Current:  s.Current,
		Forward:  optional(s.Forward),
		Replace:  s.Replace,
		Position: s.Position,
		Data:     s.Data,
		Scroll:   json.RawMessage("false"),
	}
	if s.Scroll != nil {
		raw, err := json.Marshal(s.Scroll)
		if err != nil {
			return nil, err
		}
		w.Scroll = raw
	}
	return json.Marshal(w)
}

// UnmarshalJSON implements json.Unmarshaler.
func (s *State) UnmarshalJSON(data []byte) error {
	var w wireState
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*s = State{
		Current:  w.Current,
		Replace:  w.Replace,
		Position: w.Position,
		Data:     w.Data,
	}
	if w.Back != nil {
		s.Back = *w.Back
	}
	if w.Forward != nil {
		s.Forward = *w.Forward
	}
	if len(w.Scroll) > 0 && string(w.Scroll) != "false" && string(w.Scroll) != "null" {
		var pos ScrollPosition
		if err := json.Unmarshal(w.Scroll, &pos); err != nil {
			return err
		}
		s.Scroll = &pos
	}
	return nil
}

// Encode serializes the state for the platform.
func (s State) Encode() ([]byte, error) {
	return json.Marshal(s)
}

// DecodeState parses persisted platform state.
func DecodeState(raw []byte) (State, error) {
	var s State
	if err := json.Unmarshal(raw, &s); err != nil {
		return State{}, errors.New("W211").Wrap(err)
	}
	return s, nil
}

// mergeData returns a new map holding base overlaid with extra.
func mergeData(base, extra map[string]any) map[string]any {
	if len(base) == 0 && len(extra) == 0 {
		return nil
	}
	out := make(map[string]any, len(base)+len(extra))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range extra {
		out[k] = v
	}
	return out
}
