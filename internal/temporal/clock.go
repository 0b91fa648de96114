package temporal

import "time"

// Clock abstracts wall-clock reads so decay and history behavior stays
// deterministic and replayable under test.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock returns the real wall clock.
func SystemClock() Clock { return systemClock{} }
