// AlarmFilters narrow the list of stored alarms.
package dto

import "time"

type AlarmFilters struct {
	Camera string
	Label  string
	After  time.Time
	Before time.Time
	Limit  int
}
