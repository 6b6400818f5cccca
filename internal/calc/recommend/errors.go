package recommend

import "errors"

// ErrInvalidInput means the recipe has no usable solids range: a molarity
// or the combined molar mass is not positive.
var ErrInvalidInput = errors.New("recommend: invalid input")
