package detect

import (
	"fmt"
	"strings"
)

// ColumnType is the semantic tag assigned to a column.
type ColumnType string

const (
	Continuous          ColumnType = "continuous"
	DirtyFloat          ColumnType = "dirty_float"
	Categorical         ColumnType = "categorical"
	LowCardInt          ColumnType = "low_card_int"
	HighCardCategorical ColumnType = "high_card_categorical"
	FreeText            ColumnType = "free_text"
	Date                ColumnType = "date"
	Useless             ColumnType = "useless"
	Target              ColumnType = "target"
)

// AllTypes lists every ColumnType in declaration order.
func AllTypes() []ColumnType {
	return []ColumnType{Continuous, DirtyFloat, Categorical, LowCardInt, HighCardCategorical, FreeText, Date, Useless, Target}
}

func (t ColumnType) String() string { return string(t) }

// Valid reports whether t is one of the closed set of types.
func (t ColumnType) Valid() bool {
	for _, c := range AllTypes() {
		if t == c {
			return true
		}
	}
	return false
}

// Numeric reports whether values of this type are read as numbers.
func (t ColumnType) Numeric() bool { return t == Continuous || t == DirtyFloat }

// ParseColumnType accepts any case and '-' in place of '_'.
func ParseColumnType(s string) (ColumnType, error) {
	norm := ColumnType(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_"))
	if !norm.Valid() {
		names := make([]string, 0, len(AllTypes()))
		for _, c := range AllTypes() {
			names = append(names, string(c))
		}
		return "", fmt.Errorf("unknown column type %q (valid: %s)", s, strings.Join(names, ", "))
	}
	return norm, nil
}

func (t ColumnType) MarshalText() ([]byte, error) { return []byte(t), nil }

func (t *ColumnType) UnmarshalText(b []byte) error {
	v, err := ParseColumnType(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}
