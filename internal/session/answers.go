package session

import (
	"fmt"
	"strings"
)

// Field names one of the answers the exercise asks for.
type Field uint8

const (
	FieldLocation Field = iota
	FieldCommand
	FieldNote
)

func (f Field) String() string {
	switch f {
	case FieldLocation:
		return "location"
	case FieldCommand:
		return "command"
	case FieldNote:
		return "note"
	default:
		return fmt.Sprintf("field(%d)", uint8(f))
	}
}

// ParseField maps a field name as written in scripts and flags.
func ParseField(name string) (Field, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "location":
		return FieldLocation, nil
	case "command":
		return FieldCommand, nil
	case "note":
		return FieldNote, nil
	}
	return 0, fmt.Errorf("unknown answer field '%s' (want location, command or note)", name)
}

// Answers holds the three answer fields.
type Answers struct {
	Location string `yaml:"location" toml:"location" json:"location" mapstructure:"location"`
	Command  string `yaml:"command" toml:"command" json:"command" mapstructure:"command"`
	Note     string `yaml:"note" toml:"note" json:"note" mapstructure:"note"`
}

// DefaultExpected is the answer key of the built-in exercise: the misfiled
// image belongs in Pics/Renovables, moving it takes mv, and the note names
// the image.
func DefaultExpected() Answers {
	return Answers{
		Location: "/home/alumno/Pics/Renovables",
		Command:  "mv",
		Note:     "granja_solar.jpg",
	}
}

func (a *Answers) set(f Field, value string) error {
	switch f {
	case FieldLocation:
		a.Location = value
	case FieldCommand:
		a.Command = value
	case FieldNote:
		a.Note = value
	default:
		return fmt.Errorf("unknown answer field %s", f)
	}
	return nil
}

// Empty reports whether no field has been answered.
func (a Answers) Empty() bool {
	return strings.TrimSpace(a.Location) == "" && strings.TrimSpace(a.Command) == "" && strings.TrimSpace(a.Note) == ""
}

// Matches compares given answers against a: location and command exactly,
// the free-text note ignoring case. Surrounding whitespace never counts.
func (a Answers) Matches(given Answers) bool {
	return strings.TrimSpace(given.Location) == strings.TrimSpace(a.Location) &&
		strings.TrimSpace(given.Command) == strings.TrimSpace(a.Command) &&
		strings.EqualFold(strings.TrimSpace(given.Note), strings.TrimSpace(a.Note))
}
