package redis

import "time"

// SetClock overrides the clock used for index scores.
func (s *Store) SetClock(now func() time.Time) {
	s.now = now
}
