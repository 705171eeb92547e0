// Package events defines the structured event stream emitted during a
// simulation and the sinks that consume it.
package events

import "github.com/rs/zerolog"

// Collector is the default sink, retaining every event in order
type Collector struct {
	events []Event
}

// Publish appends the event
func (c *Collector) Publish(e Event) {
	c.events = append(c.events, e)
}

// Events returns a copy of everything collected so far
func (c *Collector) Events() []Event {
	out := make([]Event, len(c.events))
	copy(out, c.events)
	return out
}

// Reset discards collected events so the sink can be reused
func (c *Collector) Reset() {
	c.events = nil
}

// Logger renders events as structured log lines. Fills log at info level,
// rejections and warnings at warn
type Logger struct {
	log zerolog.Logger
}

// NewLogger returns a Logger sink writing through l
func NewLogger(l zerolog.Logger) *Logger {
	return &Logger{log: l}
}

// Publish logs the event
func (l *Logger) Publish(e Event) {
	entry := l.log.Info()
	if e.Type == Rejection || e.Type == Warning {
		entry = l.log.Warn()
	}
	entry = entry.
		Int("offset", e.Offset).
		Time("bar", e.Time).
		Str("event", string(e.Type))
	if e.Side != "" {
		entry = entry.Str("side", e.Side)
	}
	if !e.Amount.IsZero() {
		entry = entry.Str("amount", e.Amount.String()).Str("price", e.Price.String())
	}
	if e.Tag != "" {
		entry = entry.Str("tag", e.Tag)
	}
	entry.Msg(e.Message)
}

// Tee fans one event out to every supplied sink, skipping nils
func Tee(streams ...Stream) Stream {
	var active []Stream
	for i := range streams {
		if streams[i] != nil {
			active = append(active, streams[i])
		}
	}
	return tee(active)
}

type tee []Stream

func (t tee) Publish(e Event) {
	for i := range t {
		t[i].Publish(e)
	}
}
