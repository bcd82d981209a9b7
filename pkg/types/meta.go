// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the display format for publication dates.
const DateLayout = "2006.01.02"

// MetaState records where a citation count or publication date came from.
type MetaState uint8

const (
	// MetaUnknown means no value is available; it renders as "N/A".
	MetaUnknown MetaState = iota
	// MetaPending means a fetch is in flight; it renders as "Loading...".
	MetaPending
	// MetaKnown is a value reported by the backend.
	MetaKnown
	// MetaSimulated is a randomly generated placeholder value.
	MetaSimulated
)

// String returns the state name.
func (s MetaState) String() string {
	switch s {
	case MetaUnknown:
		return "unknown"
	case MetaPending:
		return "pending"
	case MetaKnown:
		return "known"
	case MetaSimulated:
		return "simulated"
	default:
		return fmt.Sprintf("MetaState(%d)", uint8(s))
	}
}

// Citation is a citation count that may be missing, pending or simulated.
// It marshals to a JSON number when a value is present and to a sentinel
// string otherwise.
type Citation struct {
	Count int
	State MetaState
}

// KnownCitation returns a backend-reported count.
func KnownCitation(n int) Citation { return Citation{Count: n, State: MetaKnown} }

// SimulatedCitation returns a placeholder count.
func SimulatedCitation(n int) Citation { return Citation{Count: n, State: MetaSimulated} }

// PendingCitation returns a count that is still being fetched.
func PendingCitation() Citation { return Citation{State: MetaPending} }

// Valid reports whether the citation carries a number.
func (c Citation) Valid() bool {
	return c.State == MetaKnown || c.State == MetaSimulated
}

// Value returns the count, or 0 when no number is available.
func (c Citation) Value() int {
	if !c.Valid() {
		return 0
	}
	return c.Count
}

func (c Citation) String() string {
	switch c.State {
	case MetaKnown, MetaSimulated:
		return strconv.Itoa(c.Count)
	case MetaPending:
		return Loading
	default:
		return NotAvailable
	}
}

// ParseCitation interprets a backend citation value given as text.
func ParseCitation(s string) Citation {
	s = strings.TrimSpace(s)
	switch s {
	case "", NotAvailable:
		return Citation{}
	case Loading:
		return PendingCitation()
	}
	if n, err := strconv.Atoi(s); err == nil {
		return KnownCitation(n)
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return KnownCitation(int(f))
	}
	return Citation{}
}

// MarshalJSON implements json.Marshaler.
func (c Citation) MarshalJSON() ([]byte, error) {
	if c.Valid() {
		return []byte(strconv.Itoa(c.Count)), nil
	}
	return json.Marshal(c.String())
}

// UnmarshalJSON implements json.Unmarshaler. It accepts numbers, numeric
// strings, null and the sentinel strings.
func (c *Citation) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "null" {
		*c = Citation{}
		return nil
	}
	if strings.HasPrefix(raw, `"`) {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("decoding citation: %w", err)
		}
		*c = ParseCitation(s)
		return nil
	}
	*c = ParseCitation(raw)
	return nil
}

// MarshalYAML renders the citation the same way as JSON.
func (c Citation) MarshalYAML() (interface{}, error) {
	if c.Valid() {
		return c.Count, nil
	}
	return c.String(), nil
}

// UnmarshalYAML accepts the values MarshalYAML produces.
func (c *Citation) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var v interface{}
	if err := unmarshal(&v); err != nil {
		return err
	}
	*c = ParseCitation(fmt.Sprint(v))
	return nil
}

// PubDate is a publication date that may be missing, pending or simulated.
type PubDate struct {
	Time  time.Time
	State MetaState
}

// KnownDate returns a backend-reported date.
func KnownDate(t time.Time) PubDate { return PubDate{Time: t, State: MetaKnown} }

// SimulatedDate returns a placeholder date.
func SimulatedDate(t time.Time) PubDate { return PubDate{Time: t, State: MetaSimulated} }

// PendingDate returns a date that is still being fetched.
func PendingDate() PubDate { return PubDate{State: MetaPending} }

// Valid reports whether the date carries a time.
func (d PubDate) Valid() bool {
	return (d.State == MetaKnown || d.State == MetaSimulated) && !d.Time.IsZero()
}

func (d PubDate) String() string {
	switch {
	case d.Valid():
		return d.Time.Format(DateLayout)
	case d.State == MetaPending:
		return Loading
	default:
		return NotAvailable
	}
}

// Before reports whether d sorts before other. Dates without a value
// are older than any real date.
func (d PubDate) Before(other PubDate) bool {
	switch {
	case !d.Valid():
		return other.Valid()
	case !other.Valid():
		return false
	default:
		return d.Time.Before(other.Time)
	}
}

var dateLayouts = []string{
	DateLayout,
	"2006-01-02",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006.01",
	"2006-01",
	"2006",
}

// ParseDate interprets a backend date string. Unparseable input yields an
// unknown date.
func ParseDate(s string) PubDate {
	s = strings.TrimSpace(s)
	switch s {
	case "", NotAvailable:
		return PubDate{}
	case Loading:
		return PendingDate()
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return KnownDate(t)
		}
	}
	return PubDate{}
}

// MarshalJSON implements json.Marshaler.
func (d PubDate) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *PubDate) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "null" {
		*d = PubDate{}
		return nil
	}
	if strings.HasPrefix(raw, `"`) {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("decoding date: %w", err)
		}
		*d = ParseDate(s)
		return nil
	}
	// A bare number is treated as a year.
	*d = ParseDate(raw)
	return nil
}

// MarshalYAML renders the date the same way as JSON.
func (d PubDate) MarshalYAML() (interface{}, error) {
	return d.String(), nil
}

// UnmarshalYAML accepts the values MarshalYAML produces.
func (d *PubDate) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	*d = ParseDate(s)
	return nil
}
