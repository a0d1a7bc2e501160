package expr

import "errors"

// ErrMalformed indicates the expression is outside the restricted grammar
// or syntactically invalid.
var ErrMalformed = errors.New("malformed expression")
