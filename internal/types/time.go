package types

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// localTimeLayout is the ISO 8601 form without a zone, as written by tools
// that store naive local timestamps. Fractional seconds are accepted.
const localTimeLayout = "2006-01-02T15:04:05"

// ParseTimestamp accepts RFC 3339 timestamps and zone-less ISO 8601 ones,
// which are read in the local time zone.
func ParseTimestamp(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	if t, err := time.ParseInLocation(localTimeLayout, s, time.Local); err == nil {
		return t, nil
	}
	if t, err := time.ParseInLocation(time.DateOnly, s, time.Local); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("unsupported timestamp %q", s)
}

// timestamp decodes with ParseTimestamp; null and "" leave it zero.
type timestamp struct {
	time.Time
}

func (t *timestamp) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parsed, err := ParseTimestamp(s)
	if err != nil {
		return err
	}
	t.Time = parsed
	return nil
}

func (p *Profile) UnmarshalJSON(data []byte) error {
	type alias Profile
	aux := struct {
		*alias
		CreationDate   timestamp `json:"creation_date"`
		LastUpdateDate timestamp `json:"last_update_date"`
	}{alias: (*alias)(p)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	p.CreationDate = aux.CreationDate.Time
	p.LastUpdateDate = aux.LastUpdateDate.Time
	return nil
}

func (e *FeedbackEntry) UnmarshalJSON(data []byte) error {
	type alias FeedbackEntry
	aux := struct {
		*alias
		Timestamp timestamp `json:"timestamp"`
	}{alias: (*alias)(e)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	e.Timestamp = aux.Timestamp.Time
	return nil
}

func (e *ComprehensionEntry) UnmarshalJSON(data []byte) error {
	type alias ComprehensionEntry
	aux := struct {
		*alias
		Timestamp timestamp `json:"timestamp"`
	}{alias: (*alias)(e)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	e.Timestamp = aux.Timestamp.Time
	return nil
}

func (e *Interaction) UnmarshalJSON(data []byte) error {
	type alias Interaction
	aux := struct {
		*alias
		Timestamp timestamp `json:"timestamp"`
	}{alias: (*alias)(e)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	e.Timestamp = aux.Timestamp.Time
	return nil
}

func (e *EmotionEntry) UnmarshalJSON(data []byte) error {
	type alias EmotionEntry
	aux := struct {
		*alias
		Timestamp timestamp `json:"timestamp"`
	}{alias: (*alias)(e)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	e.Timestamp = aux.Timestamp.Time
	return nil
}

func (e *MemoryEvent) UnmarshalJSON(data []byte) error {
	type alias MemoryEvent
	aux := struct {
		*alias
		Date timestamp `json:"date"`
	}{alias: (*alias)(e)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	e.Date = aux.Date.Time
	return nil
}

func (e *VoiceTrace) UnmarshalJSON(data []byte) error {
	type alias VoiceTrace
	aux := struct {
		*alias
		Timestamp timestamp `json:"timestamp"`
	}{alias: (*alias)(e)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	e.Timestamp = aux.Timestamp.Time
	return nil
}
