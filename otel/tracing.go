// Package otel provides OpenTelemetry tracing integration for the
// network core.
//
// This package enables distributed tracing of connection, handshake,
// and gossip operations using OpenTelemetry.
//
// # Span Hierarchy
//
//	btcnet.connect
//	├── btcnet.handshake
//	├── btcnet.ping
//	└── btcnet.address_gossip
//
// # Attributes
//
// Common span attributes include:
//   - peer.authority: the remote peer's host:port
//   - connection.direction: "inbound" or "outbound"
//   - handshake.result: "success", "failure", or "timeout"
//
// # Example Usage
//
//	import (
//	    btcnetotel "github.com/blockweave/btcnet/otel"
//	    "go.opentelemetry.io/otel"
//	)
//
//	tracer := btcnetotel.NewTracer(otel.GetTracerProvider())
//	ctx, span := tracer.StartConnect(ctx, remote, "outbound")
//	defer tracer.EndSpan(span, err)
package otel

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/blockweave/btcnet/pkg/authority"
)

const (
	// TracerName is the name used for the OpenTelemetry tracer.
	TracerName = "github.com/blockweave/btcnet"

	// Span names
	SpanConnect       = "btcnet.connect"
	SpanHandshake     = "btcnet.handshake"
	SpanPing          = "btcnet.ping"
	SpanAddressGossip = "btcnet.address_gossip"
	SpanDisconnect    = "btcnet.disconnect"

	// Attribute keys
	AttrPeerAuthority       = "peer.authority"
	AttrConnectionDirection = "connection.direction"
	AttrHandshakeResult     = "handshake.result"
	AttrAddressesAccepted   = "addresses.accepted"
	AttrAddressesFiltered   = "addresses.filtered"
	AttrErrorMessage        = "error.message"
)

// Tracer creates spans for connection lifecycle, handshake, ping, and
// address-gossip operations.
//
// Tracer is safe for concurrent use.
type Tracer struct {
	tracer trace.Tracer
}

// NewTracer creates a new Tracer using the given TracerProvider. If
// provider is nil, a no-op tracer is used.
func NewTracer(provider trace.TracerProvider) *Tracer {
	if provider == nil {
		return &Tracer{tracer: noop.NewTracerProvider().Tracer(TracerName)}
	}
	return &Tracer{tracer: provider.Tracer(TracerName)}
}

// StartConnect starts a span for a connection attempt.
func (t *Tracer) StartConnect(ctx context.Context, remote authority.Authority, direction string) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, SpanConnect,
		trace.WithAttributes(
			attribute.String(AttrPeerAuthority, remote.String()),
			attribute.String(AttrConnectionDirection, direction),
		),
		trace.WithSpanKind(trace.SpanKindClient),
	)
}

// StartHandshake starts a span for the version/verack handshake.
func (t *Tracer) StartHandshake(ctx context.Context, remote authority.Authority) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, SpanHandshake,
		trace.WithAttributes(
			attribute.String(AttrPeerAuthority, remote.String()),
		),
	)
}

// StartPing starts a span for a ping/pong round trip.
func (t *Tracer) StartPing(ctx context.Context, remote authority.Authority) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, SpanPing,
		trace.WithAttributes(
			attribute.String(AttrPeerAuthority, remote.String()),
		),
	)
}

// StartAddressGossip starts a span for processing an incoming addr
// message.
func (t *Tracer) StartAddressGossip(ctx context.Context, remote authority.Authority) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, SpanAddressGossip,
		trace.WithAttributes(
			attribute.String(AttrPeerAuthority, remote.String()),
		),
	)
}

// StartDisconnect starts a span for channel teardown.
func (t *Tracer) StartDisconnect(ctx context.Context, remote authority.Authority) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, SpanDisconnect,
		trace.WithAttributes(
			attribute.String(AttrPeerAuthority, remote.String()),
		),
	)
}

// RecordHandshakeResult records the outcome of a handshake on span.
func (t *Tracer) RecordHandshakeResult(span trace.Span, result string, err error) {
	span.SetAttributes(attribute.String(AttrHandshakeResult, result))
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		span.SetAttributes(attribute.String(AttrErrorMessage, err.Error()))
	} else {
		span.SetStatus(codes.Ok, "")
	}
}

// RecordAddressGossip records how many gossiped addresses were
// accepted versus filtered on span.
func (t *Tracer) RecordAddressGossip(span trace.Span, accepted, filtered int) {
	span.SetAttributes(
		attribute.Int(AttrAddressesAccepted, accepted),
		attribute.Int(AttrAddressesFiltered, filtered),
	)
}

// RecordError records an error on span.
func (t *Tracer) RecordError(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}

// EndSpan ends span, optionally recording an error first.
func (t *Tracer) EndSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// NopTracer wraps the real Tracer with a noop provider. Used when
// tracing is disabled.
type NopTracer struct {
	*Tracer
}

// NewNopTracer creates a new no-op tracer.
func NewNopTracer() *NopTracer {
	return &NopTracer{Tracer: NewTracer(nil)}
}
