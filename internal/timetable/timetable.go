// Package timetable loads the weekly class schedule. The subject of a slot is
// the label attendance is recorded against.
package timetable

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/saturnino-fabrica-de-software/smartmark/internal/domain"
)

// BreakSubject marks slots without a class.
const BreakSubject = "Break"

type Slot struct {
	Time    string `json:"time" yaml:"time"`
	Subject string `json:"subject" yaml:"subject"`
	Teacher string `json:"teacher,omitempty" yaml:"teacher,omitempty"`
}

func (s Slot) IsBreak() bool {
	return strings.EqualFold(strings.TrimSpace(s.Subject), BreakSubject)
}

// Range parses a "HH:MM - HH:MM" time field into minutes since midnight.
func (s Slot) Range() (start, end int, err error) {
	from, to, ok := strings.Cut(s.Time, "-")
	if !ok {
		return 0, 0, fmt.Errorf("slot time %q is not a range", s.Time)
	}
	if start, err = clock(from); err != nil {
		return 0, 0, err
	}
	if end, err = clock(to); err != nil {
		return 0, 0, err
	}
	return start, end, nil
}

func clock(v string) (int, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(v))
	if err != nil {
		return 0, fmt.Errorf("parse slot time %q: %w", v, err)
	}
	return t.Hour()*60 + t.Minute(), nil
}

type Day struct {
	Day   string `json:"day" yaml:"day"`
	Slots []Slot `json:"slots" yaml:"slots"`
}

type Timetable struct {
	Days []Day `json:"timetable" yaml:"timetable"`
}

// Load reads path as YAML when it ends in .yaml or .yml and as JSON otherwise.
func Load(path string) (*Timetable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read timetable: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(path))
	var tt *Timetable
	if ext == ".yaml" || ext == ".yml" {
		tt, err = ParseYAML(data)
	} else {
		tt, err = ParseJSON(data)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return tt, nil
}

func ParseJSON(data []byte) (*Timetable, error) {
	var tt Timetable
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&tt); err != nil {
		return nil, domain.ErrValidationFailed.WithError(fmt.Errorf("decode timetable: %w", err))
	}
	return &tt, tt.validate()
}

func ParseYAML(data []byte) (*Timetable, error) {
	var tt Timetable
	if err := yaml.Unmarshal(data, &tt); err != nil {
		return nil, domain.ErrValidationFailed.WithError(fmt.Errorf("decode timetable: %w", err))
	}
	return &tt, tt.validate()
}

func (t *Timetable) validate() error {
	seen := make(map[string]bool, len(t.Days))
	for i, d := range t.Days {
		name := strings.TrimSpace(d.Day)
		if name == "" {
			return domain.ErrValidationFailed.WithError(fmt.Errorf("timetable entry %d has no day", i))
		}
		key := strings.ToLower(name)
		if seen[key] {
			return domain.ErrValidationFailed.WithError(fmt.Errorf("day %s listed twice", name))
		}
		seen[key] = true
	}
	return nil
}

// DayNames lists days in file order.
func (t *Timetable) DayNames() []string {
	names := make([]string, len(t.Days))
	for i, d := range t.Days {
		names[i] = d.Day
	}
	return names
}

// Slots returns the slots of day, matched case-insensitively.
func (t *Timetable) Slots(day string) ([]Slot, error) {
	for _, d := range t.Days {
		if strings.EqualFold(d.Day, strings.TrimSpace(day)) {
			return d.Slots, nil
		}
	}
	return nil, domain.ErrDayNotFound.WithError(fmt.Errorf("day %q", day))
}

// Subjects lists the distinct class subjects, breaks excluded, in first
// appearance order.
func (t *Timetable) Subjects() []string {
	var out []string
	seen := map[string]bool{}
	for _, d := range t.Days {
		for _, s := range d.Slots {
			if s.IsBreak() || seen[s.Subject] {
				continue
			}
			seen[s.Subject] = true
			out = append(out, s.Subject)
		}
	}
	return out
}

// At returns the class slot running at moment, using its weekday name.
// Breaks and slots whose time cannot be parsed never match.
func (t *Timetable) At(moment time.Time) (Slot, bool) {
	slots, err := t.Slots(moment.Weekday().String())
	if err != nil {
		return Slot{}, false
	}

	minute := moment.Hour()*60 + moment.Minute()
	for _, s := range slots {
		if s.IsBreak() {
			continue
		}
		start, end, err := s.Range()
		if err != nil {
			continue
		}
		if minute >= start && minute < end {
			return s, true
		}
	}
	return Slot{}, false
}
