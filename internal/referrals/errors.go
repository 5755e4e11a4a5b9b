package referrals

import "errors"

var (
	ErrNotFound    = errors.New("not found")
	ErrJobNotFound = errors.New("job not found")
)
