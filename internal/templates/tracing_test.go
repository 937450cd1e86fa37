package templates

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func newRecordedRepository(t *testing.T) (*Repository, *tracetest.SpanRecorder) {
	t.Helper()
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	t.Cleanup(func() { tp.Shutdown(context.Background()) })
	return New(NewDirSource(libraryFS()), WithTracerProvider(tp)), sr
}

func spanAttr(span sdktrace.ReadOnlySpan, key attribute.Key) (attribute.Value, bool) {
	for _, kv := range span.Attributes() {
		if kv.Key == key {
			return kv.Value, true
		}
	}
	return attribute.Value{}, false
}

func TestRepository_TracesCacheFills(t *testing.T) {
	repo, sr := newRecordedRepository(t)
	ctx := context.Background()

	_, err := repo.Templates(ctx, "A")
	require.NoError(t, err)

	spans := sr.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "templates.load", spans[0].Name())
	assert.Equal(t, codes.Unset, spans[0].Status().Code)

	symbol, ok := spanAttr(spans[0], "symbol")
	require.True(t, ok)
	assert.Equal(t, "A", symbol.AsString())

	count, ok := spanAttr(spans[0], "templates")
	require.True(t, ok)
	assert.Equal(t, int64(2), count.AsInt64())

	// Cache hits do not start a load.
	_, err = repo.Templates(ctx, "A")
	require.NoError(t, err)
	assert.Len(t, sr.Ended(), 1)
}

func TestRepository_TracesLoadErrors(t *testing.T) {
	repo, sr := newRecordedRepository(t)

	_, err := repo.Templates(context.Background(), "Z")
	require.ErrorIs(t, err, ErrNoTemplates)

	spans := sr.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status().Code)
	assert.Contains(t, spans[0].Status().Description, "no usable templates")

	symbol, _ := spanAttr(spans[0], "symbol")
	assert.Equal(t, "Z", symbol.AsString())
}

func TestRepository_UnknownSymbolIsNotTraced(t *testing.T) {
	repo, sr := newRecordedRepository(t)

	_, err := repo.Templates(context.Background(), "Ñ")
	require.ErrorIs(t, err, ErrUnknownSymbol)
	assert.Empty(t, sr.Ended())
}
