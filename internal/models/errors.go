package models

import (
	"errors"
	"fmt"
)

// ErrPlayerNotFound is returned by stores when no row matches the requested player_id
var ErrPlayerNotFound = errors.New("player not found")

// RowWidthError reports a row whose cell count does not match the header count
type RowWidthError struct {
	Row  int
	Got  int
	Want int
}

func (e *RowWidthError) Error() string {
	return fmt.Sprintf("row %d has %d cells, expected %d", e.Row, e.Got, e.Want)
}

// FieldError reports a record field that cannot be converted to its typed column
type FieldError struct {
	Field string
	Value any
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("invalid value for %s: %v (%T)", e.Field, e.Value, e.Value)
}
