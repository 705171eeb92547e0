package events

import (
	"bytes"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sample(t Type) Event {
	return Event{
		Offset:  3,
		Time:    time.Date(2024, 1, 4, 0, 0, 0, 0, time.UTC),
		Type:    t,
		Side:    "LONG",
		Price:   decimal.NewFromInt(101),
		Amount:  decimal.NewFromInt(10),
		Tag:     "rsi",
		Message: "filled",
	}
}

func TestCollector(t *testing.T) {
	t.Parallel()
	c := &Collector{}
	c.Publish(sample(Entry))
	c.Publish(sample(Exit))
	require.Len(t, c.Events(), 2)
	assert.Equal(t, Entry, c.Events()[0].Type)

	// returned slice is a copy
	c.Events()[0].Type = Warning
	assert.Equal(t, Entry, c.Events()[0].Type)

	c.Reset()
	assert.Empty(t, c.Events())
}

func TestLoggerLevels(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	l := NewLogger(zerolog.New(&buf))

	l.Publish(sample(Entry))
	assert.Contains(t, buf.String(), `"level":"info"`)
	assert.Contains(t, buf.String(), `"side":"LONG"`)

	buf.Reset()
	l.Publish(sample(Rejection))
	assert.Contains(t, buf.String(), `"level":"warn"`)
}

func TestTee(t *testing.T) {
	t.Parallel()
	a, b := &Collector{}, &Collector{}
	stream := Tee(a, nil, b)
	stream.Publish(sample(Entry))
	assert.Len(t, a.Events(), 1)
	assert.Len(t, b.Events(), 1)
}
