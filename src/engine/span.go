package engine

import (
	"log"
	"time"
)

//Span measures the scoped call, End closes it
type Span struct {
	name   string
	start  time.Time
	logger *log.Logger
}

//StartSpan opens the span, logger may be nil
func StartSpan(logger *log.Logger, name string) *Span {
	return &Span{name: name, start: time.Now(), logger: logger}
}

//End returns the span duration and writes it to the logger
func (s *Span) End() time.Duration {
	d := time.Since(s.start)
	if s.logger != nil {
		s.logger.Printf("%s took %v", s.name, d)
	}
	return d
}
