package sinks

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/JakeFAU/docs-translator/internal/progress"
	"github.com/JakeFAU/docs-translator/internal/publisher/memory"
)

func batch() []progress.Event {
	now := time.Now()
	return []progress.Event{
		{RunID: "r1", TS: now, Kind: progress.KindRunStart, Pages: 2},
		{RunID: "r1", TS: now, Kind: progress.KindPageDone, URL: "https://d.example.com/a", Dur: time.Second},
		{RunID: "r1", TS: now, Kind: progress.KindPageFailed, URL: "https://d.example.com/b", Stage: "summarize", Note: "quota"},
		{RunID: "r1", TS: now, Kind: progress.KindRunDone, Processed: 1, Failed: 1},
	}
}

func TestLogSink(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.InfoLevel)
	sink := NewLogSink(zap.New(core))
	require.NoError(t, sink.Consume(context.Background(), batch()))
	require.NoError(t, sink.Close(context.Background()))

	entries := logs.All()
	require.Len(t, entries, 4)
	assert.Equal(t, zapcore.WarnLevel, entries[2].Level)
	assert.Equal(t, "summarize", entries[2].ContextMap()["stage"])
	assert.EqualValues(t, 1, entries[3].ContextMap()["failed"])
}

func TestPublishSinkRunEventsOnly(t *testing.T) {
	t.Parallel()

	pub := memory.New()
	sink, err := NewPublishSink(pub, "docs-runs")
	require.NoError(t, err)
	require.NoError(t, sink.Consume(context.Background(), batch()))

	msgs := pub.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "docs-runs", msgs[0].Topic)
	assert.Equal(t, progress.KindRunStart, msgs[0].Payload.(progress.Event).Kind)
	assert.Equal(t, progress.KindRunDone, msgs[1].Payload.(progress.Event).Kind)
}

func TestPublishSinkPageEventsAndErrors(t *testing.T) {
	t.Parallel()

	pub := memory.New()
	sink, err := NewPublishSink(pub, "docs-runs", PageEvents())
	require.NoError(t, err)

	boom := errors.New("unavailable")
	pub.FailNext(boom)
	err = sink.Consume(context.Background(), batch())
	require.ErrorIs(t, err, boom)
	assert.Len(t, pub.Messages(), 3)
}

func TestNewPublishSinkValidation(t *testing.T) {
	t.Parallel()

	_, err := NewPublishSink(nil, "t")
	require.Error(t, err)
	_, err = NewPublishSink(memory.New(), "")
	require.Error(t, err)
}
