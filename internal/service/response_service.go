package service

import "time"

// LogFilter narrows an event log query. Zero bounds are open.
type LogFilter struct {
	From time.Time
	To   time.Time
	Type string // one of the models.Event* constants, or empty for all
}
