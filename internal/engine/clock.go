package engine

import "time"

// Clock supplies the engine's notion of "now".  Injecting it lets
// tests drive hold expiry without sleeping.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock in UTC, truncated to whole seconds
// to match the store's timestamp resolution.
type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now().UTC().Truncate(time.Second)
}
