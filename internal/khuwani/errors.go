package khuwani

import "errors"

var (
	// ErrInvalidSlot means the claim or release named coordinates outside
	// the khuwani's current shape: a quran number above its instance count
	// or a sipara outside 1..30. Detected before any storage write.
	ErrInvalidSlot = errors.New("invalid quran or sipara number")

	// ErrSlugExhausted means every slug attempt collided, including the
	// final optimistic insert. With a 5-character random suffix this is
	// effectively unreachable; it surfaces as an internal failure rather
	// than a silent fallback.
	ErrSlugExhausted = errors.New("could not allocate a unique slug")
)

// ValidationError reports malformed input, detected before any mutation.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return "invalid " + e.Field + ": " + e.Reason
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
