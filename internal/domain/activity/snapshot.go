package activity

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Snapshot is the full activities collection as returned by one fetch.
// It keeps the order the entries appeared in, which encoding/json maps would lose.
type Snapshot []Activity

// Names returns the activity names in snapshot order.
func (s Snapshot) Names() []string {
	names := make([]string, len(s))
	for i, a := range s {
		names[i] = a.Name
	}
	return names
}

// Find returns the activity with the given name.
func (s Snapshot) Find(name string) (Activity, bool) {
	for _, a := range s {
		if a.Name == name {
			return a, true
		}
	}
	return Activity{}, false
}

// MarshalJSON writes the snapshot as a JSON object keyed by activity name, in slice order.
// Participants are always written as an array, never null.
func (s Snapshot) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, a := range s {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(a.Name)
		if err != nil {
			return nil, err
		}
		if a.Participants == nil {
			a.Participants = []string{}
		}
		val, err := json.Marshal(a)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads a JSON object keyed by activity name, keeping key order.
// PRE: data is a JSON object whose values are activity details
// POST: snapshot holds one entry per key in document order; null participants become empty
func (s *Snapshot) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return ErrMalformedSnapshot
	}

	out := Snapshot{}
	seen := make(map[string]bool)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		name, ok := tok.(string)
		if !ok {
			return ErrMalformedSnapshot
		}
		if seen[name] {
			return fmt.Errorf("%w: %q", ErrDuplicateActivity, name)
		}
		seen[name] = true

		var a Activity
		if err := dec.Decode(&a); err != nil {
			return fmt.Errorf("activity %q: %w", name, err)
		}
		a.Name = name
		if a.Participants == nil {
			a.Participants = []string{}
		}
		out = append(out, a)
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*s = out
	return nil
}
