package catalog

import "errors"

var (
	ErrCardNotFound      = errors.New("card not found")
	ErrCardReferenced    = errors.New("card referenced by a deck")
	ErrArchetypeNotFound = errors.New("archetype not found")
)
