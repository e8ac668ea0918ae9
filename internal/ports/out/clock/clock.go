package clock

import "time"

// Clock tells the application what "today" is, which decides whether a membership is
// still valid.
type Clock interface {
	Now() time.Time
}
