package clean

import (
	"fmt"

	"github.com/KaramelBytes/tabloom-cli/internal/detect"
)

// ActionKind names what a cleaning rule did to a column.
type ActionKind string

const (
	Coerced      ActionKind = "coerced"
	Dropped      ActionKind = "dropped"
	Duplicate    ActionKind = "duplicate"
	NearConstant ActionKind = "near-constant"
)

// Action records one change (or annotation) applied to a column.
type Action struct {
	Column string            `json:"column"`
	Kind   ActionKind        `json:"kind"`
	From   detect.ColumnType `json:"from"`
	To     detect.ColumnType `json:"to"`
	// DuplicateOf names the earlier column with identical content.
	DuplicateOf string `json:"duplicate_of,omitempty"`
	// Coerced counts values that became missing during coercion.
	Coerced int    `json:"coerced,omitempty"`
	Detail  string `json:"detail,omitempty"`
}

func (a Action) String() string {
	switch a.Kind {
	case Coerced:
		return fmt.Sprintf("%s: coerced %s -> %s (%d unparseable values set missing)", a.Column, a.From, a.To, a.Coerced)
	case Duplicate:
		return fmt.Sprintf("%s: duplicate of %s, marked %s", a.Column, a.DuplicateOf, a.To)
	case Dropped:
		return fmt.Sprintf("%s: %s, marked %s", a.Column, a.Detail, a.To)
	default:
		return fmt.Sprintf("%s: %s (%s)", a.Column, a.Kind, a.Detail)
	}
}

// Report lists the actions of one Clean call in application order.
type Report struct {
	Actions []Action `json:"actions"`
}

// For returns the actions that touched column.
func (r *Report) For(column string) []Action {
	var out []Action
	for _, a := range r.Actions {
		if a.Column == column {
			out = append(out, a)
		}
	}
	return out
}

// Count returns the number of actions of kind.
func (r *Report) Count(kind ActionKind) int {
	n := 0
	for _, a := range r.Actions {
		if a.Kind == kind {
			n++
		}
	}
	return n
}

// Changed reports whether any action altered a type or value.
func (r *Report) Changed() bool {
	return r.Count(Coerced)+r.Count(Dropped)+r.Count(Duplicate) > 0
}
