package sitepulse

import "errors"

var (
	// ErrInvalidURL is wrapped by errors from [Normalize] and carried by
	// outcomes of kind [KindInvalidURL].
	ErrInvalidURL = errors.New("invalid URL")

	// ErrInvalidConfig is wrapped by option errors returned from [New].
	ErrInvalidConfig = errors.New("invalid configuration")
)
