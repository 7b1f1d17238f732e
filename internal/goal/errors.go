package goal

import (
	"errors"
	"fmt"
)

// ErrNotFound indicates the requested goal does not exist for the user.
var ErrNotFound = errors.New("goal not found")

// ErrConflict indicates a duplicate identifier collision.
var ErrConflict = errors.New("goal already exists")

// ErrInvalidInput indicates the provided data failed validation.
var ErrInvalidInput = errors.New("invalid input")

// ErrInvalidProgress indicates a reported value that is negative or not a finite number.
var ErrInvalidProgress = fmt.Errorf("%w: progress value must be a finite number >= 0", ErrInvalidInput)

// ErrInvalidDailyTarget indicates a stored daily target that cannot be divided by.
var ErrInvalidDailyTarget = fmt.Errorf("%w: daily target must be a finite number >= 0", ErrInvalidInput)

// ErrUnauthenticated indicates the caller has no user identity.
var ErrUnauthenticated = errors.New("user not authenticated")

// errUnchanged aborts a repository update without writing.
var errUnchanged = errors.New("goal unchanged")
