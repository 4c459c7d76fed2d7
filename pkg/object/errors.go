package object

import "errors"

var (
	// ErrObjectNotFound is returned when no object exists under a hash.
	ErrObjectNotFound = errors.New("object not found")

	// ErrCorruptObject is returned when stored bytes re-hash to a value
	// different from the key they are stored under, or cannot be
	// decompressed at all. Callers should stop rather than proceed on
	// unreliable data.
	ErrCorruptObject = errors.New("corrupt object")

	// ErrMalformedObject is returned when object bytes fail structural
	// validation during decode.
	ErrMalformedObject = errors.New("malformed object")
)
