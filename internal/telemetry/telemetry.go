// Package telemetry wires one OpenTelemetry tracer provider, exported to
// stdout, and names the spans the orchestrator opens around each pipeline
// stage.
package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

const (
	StageDiffRead        = "diff_read"
	StageWorkspaceParse  = "workspace_parse"
	StageSymbolLocate    = "symbol_locate"
	StageReferenceClose  = "reference_close"
	StageProjectMap      = "project_map"
)

// Provider wraps the tracer provider for one run; Shutdown flushes the
// stdout exporter.
type Provider struct {
	tp     *sdktrace.TracerProvider
	tracer trace.Tracer
}

// New builds a Provider that exports spans to stdout, for local debugging
// of a batch CLI run (no collector endpoint to configure).
func New(ctx context.Context, serviceName string) (*Provider, error) {
	exporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
	if err != nil {
		return nil, fmt.Errorf("telemetry: creating stdout exporter: %w", err)
	}

	res, err := resource.New(ctx, resource.WithAttributes(attribute.String("service.name", serviceName)))
	if err != nil {
		return nil, fmt.Errorf("telemetry: building resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)

	return &Provider{tp: tp, tracer: tp.Tracer(serviceName)}, nil
}

// StartStage opens a span named by one of the Stage* constants.
func (p *Provider) StartStage(ctx context.Context, stage string) (context.Context, trace.Span) {
	return p.tracer.Start(ctx, stage)
}

// Shutdown flushes any buffered spans.
func (p *Provider) Shutdown(ctx context.Context) error {
	return p.tp.Shutdown(ctx)
}
