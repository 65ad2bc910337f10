package services

import (
	"fmt"
)

// StoreError meldet einen Fehler der Datenbank-Engine (Verbindung, Constraint, Schema).
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store error during %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// NotFoundError wird geliefert, wenn zu einer ID keine Zeile existiert.
type NotFoundError struct {
	Resource string
	ID       uint
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s with id %d not found", e.Resource, e.ID)
}

// InvalidInputError beschreibt eine strukturell ungültige Anfrage.
type InvalidInputError struct {
	Msg string
	Err error
}

func (e *InvalidInputError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid input: %s: %v", e.Msg, e.Err)
	}
	return "invalid input: " + e.Msg
}

func (e *InvalidInputError) Unwrap() error { return e.Err }

func storeErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StoreError{Op: op, Err: err}
}
