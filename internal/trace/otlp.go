package trace

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sort"
	"strconv"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.4.0"
	oteltrace "go.opentelemetry.io/otel/trace"
)

// DefaultServiceName is reported when no service name is configured.
const DefaultServiceName = "vislevel"

// OTLPExporter turns recorded entries into OTLP spans.
type OTLPExporter struct {
	provider *sdktrace.TracerProvider
	tracer   oteltrace.Tracer
}

// NewOTLPExporter creates an exporter that ships spans to an OTLP/HTTP endpoint.
// Returns nil if endpoint is empty (disabled).
func NewOTLPExporter(ctx context.Context, endpoint, serviceName string) (*OTLPExporter, error) {
	if endpoint == "" {
		return nil, nil
	}

	exporter, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpoint(endpoint),
		otlptracehttp.WithInsecure(),
	)
	if err != nil {
		return nil, fmt.Errorf("create otlp exporter: %w", err)
	}
	return newExporter(serviceName, sdktrace.WithBatcher(exporter)), nil
}

// NewSyncExporter exports each span synchronously through exporter.
func NewSyncExporter(exporter sdktrace.SpanExporter, serviceName string) *OTLPExporter {
	return newExporter(serviceName, sdktrace.WithSyncer(exporter))
}

func newExporter(serviceName string, processor sdktrace.TracerProviderOption) *OTLPExporter {
	if serviceName == "" {
		serviceName = DefaultServiceName
	}
	res := resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceNameKey.String(serviceName),
	)
	provider := sdktrace.NewTracerProvider(
		processor,
		sdktrace.WithResource(res),
		sdktrace.WithIDGenerator(entryIDGenerator{}),
	)
	return &OTLPExporter{
		provider: provider,
		tracer:   provider.Tracer("vislevel/level"),
	}
}

// Export emits one span for entry, parented under the session's root span.
func (e *OTLPExporter) Export(ctx context.Context, entry Entry) error {
	if e == nil {
		return nil
	}

	traceID, err := hexToTraceID(entry.TraceID)
	if err != nil {
		return err
	}
	parentID, err := hexToSpanID(entry.ParentID)
	if err != nil {
		return err
	}
	spanID, err := hexToSpanID(entry.SpanID)
	if err != nil {
		return err
	}

	// The session root never ends, so it is referenced as a remote parent.
	parent := oteltrace.NewSpanContext(oteltrace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     parentID,
		TraceFlags: oteltrace.FlagsSampled,
		Remote:     true,
	})
	parentCtx := oteltrace.ContextWithSpanContext(ctx, parent)
	parentCtx = context.WithValue(parentCtx, entrySpanIDKey{}, spanID)

	ev := entry.Event
	_, span := e.tracer.Start(parentCtx, entry.Name(), oteltrace.WithTimestamp(ev.At))
	span.SetAttributes(entryAttributes(entry)...)
	span.End(oteltrace.WithTimestamp(ev.At))
	return nil
}

type entrySpanIDKey struct{}

// entryIDGenerator gives exported spans the span ID already recorded on the
// entry, so /events and the tracing backend agree.
type entryIDGenerator struct{}

func (entryIDGenerator) NewIDs(ctx context.Context) (oteltrace.TraceID, oteltrace.SpanID) {
	var traceID oteltrace.TraceID
	_, _ = rand.Read(traceID[:])
	return traceID, entryIDGenerator{}.NewSpanID(ctx, traceID)
}

func (entryIDGenerator) NewSpanID(ctx context.Context, _ oteltrace.TraceID) oteltrace.SpanID {
	if id, ok := ctx.Value(entrySpanIDKey{}).(oteltrace.SpanID); ok && id.IsValid() {
		return id
	}
	var id oteltrace.SpanID
	_, _ = rand.Read(id[:])
	return id
}

func entryAttributes(entry Entry) []attribute.KeyValue {
	ev := entry.Event
	attrs := []attribute.KeyValue{
		attribute.String("vislevel.event", string(ev.Kind)),
		attribute.String("vislevel.seq", strconv.FormatUint(entry.Seq, 10)),
	}
	if ev.Level != "" {
		attrs = append(attrs, attribute.String("vislevel.level", ev.Level))
	}
	if ev.Item != "" {
		attrs = append(attrs, attribute.String("vislevel.item", ev.Item))
	}
	if ev.Kind.HasVisibility() {
		attrs = append(attrs, attribute.Bool("vislevel.visible", ev.Visible))
	}
	keys := make([]string, 0, len(ev.Attrs))
	for k := range ev.Attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		attrs = append(attrs, attribute.String("vislevel."+k, ev.Attrs[k]))
	}
	return attrs
}

// hexToTraceID converts a 32-character hex string to trace.TraceID
func hexToTraceID(hexStr string) (oteltrace.TraceID, error) {
	bytes, err := hex.DecodeString(hexStr)
	if err != nil {
		return oteltrace.TraceID{}, err
	}
	if len(bytes) != 16 {
		return oteltrace.TraceID{}, fmt.Errorf("trace id %q: want 16 bytes, got %d", hexStr, len(bytes))
	}
	var traceID oteltrace.TraceID
	copy(traceID[:], bytes)
	return traceID, nil
}

// hexToSpanID converts a 16-character hex string to trace.SpanID
func hexToSpanID(hexStr string) (oteltrace.SpanID, error) {
	bytes, err := hex.DecodeString(hexStr)
	if err != nil {
		return oteltrace.SpanID{}, err
	}
	if len(bytes) != 8 {
		return oteltrace.SpanID{}, fmt.Errorf("span id %q: want 8 bytes, got %d", hexStr, len(bytes))
	}
	var spanID oteltrace.SpanID
	copy(spanID[:], bytes)
	return spanID, nil
}

// Shutdown flushes and closes the exporter
func (e *OTLPExporter) Shutdown(ctx context.Context) error {
	if e == nil {
		return nil
	}
	return e.provider.Shutdown(ctx)
}
