package reward

import "errors"

var (
	errMissingID      = errors.New("reward id is required")
	errInvalidKind    = errors.New("reward kind must be percent_off or free_shipping")
	errInvalidRate    = errors.New("percent_off rate must be in (0, 1]")
	errNegativeAmount = errors.New("points cost and cap cannot be negative")
)
