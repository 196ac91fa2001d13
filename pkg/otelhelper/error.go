package otelhelper

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// SetError marks span as failed with err.
func SetError(span trace.Span, err error, attrs ...attribute.KeyValue) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	span.AddEvent("error_occurred", trace.WithAttributes(
		attrs...,
	))
}

// SetOutcome marks span failed when err is non-nil and ok otherwise.
func SetOutcome(span trace.Span, err error, attrs ...attribute.KeyValue) {
	if err != nil {
		SetError(span, err, attrs...)

		return
	}

	span.SetAttributes(attrs...)
	span.SetStatus(codes.Ok, "")
}
