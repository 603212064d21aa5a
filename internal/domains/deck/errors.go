package deck

import "errors"

var (
	ErrDeckNotFound     = errors.New("deck not found")
	ErrCardNotFound     = errors.New("card not found")
	ErrDeckFull         = errors.New("deck is at its maximum of 60 cards")
	ErrCopiesExceeded   = errors.New("deck already has the maximum of 3 copies of this card")
)
