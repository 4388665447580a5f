package service

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	id "grunnlag/pkg/domain"
)

var tracer = otel.Tracer("grunnlag.service")

func startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

// endSpan records err on the span before ending it.
func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func behandlingAttr(behandlingID id.BehandlingID) attribute.KeyValue {
	return attribute.String("grunnlag.behandling_id", behandlingID.String())
}

func sakAttr(sakID id.SakID) attribute.KeyValue {
	return attribute.Int64("grunnlag.sak_id", int64(sakID))
}
