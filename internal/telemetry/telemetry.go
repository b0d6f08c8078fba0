//
// Tencent is pleased to support the open source community by making trpc-caption-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-caption-go is licensed under the Apache License Version 2.0.
//
//

// Package telemetry holds the tracer and metric instruments used by the pipeline.
// The public telemetry/metric and telemetry/trace packages replace them once an
// exporter is configured; until then every instrument is a no-op.
package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// telemetry service constants.
const (
	ServiceName      = "trpc-caption-go"
	ServiceVersion   = "v0.1.0"
	ServiceNamespace = "trpc-go-caption"
	InstrumentName   = "trpc.caption.go"

	ProtocolGRPC = "grpc"
	ProtocolHTTP = "http"
)

// Metric names.
const (
	MetricRecordsExtracted   = "caption.dataset.records_extracted"
	MetricShuffleFallbacks   = "caption.dataset.shuffle_fallbacks"
	MetricEvaluationDuration = "caption.evaluation.duration"
	MetricAlignedImages      = "caption.evaluation.aligned_images"
	MetricInferenceRequests  = "caption.inference.requests"
)

// Attribute keys.
const (
	KeySplit   = "caption.split"
	KeyBackend = "caption.backend"
	KeyStatus  = "caption.status"
)

// grpcDial is a package-level variable to allow test injection of a custom dialer.
var grpcDial = grpc.Dial

var (
	// Tracer is the tracer used for pipeline spans.
	Tracer trace.Tracer = tracenoop.NewTracerProvider().Tracer(InstrumentName)
	// MeterProvider is the provider the instruments were created from.
	MeterProvider metric.MeterProvider = metricnoop.NewMeterProvider()

	recordsExtracted   metric.Int64Counter     = metricnoop.Int64Counter{}
	shuffleFallbacks   metric.Int64Counter     = metricnoop.Int64Counter{}
	evaluationDuration metric.Float64Histogram = metricnoop.Float64Histogram{}
	alignedImages      metric.Int64Histogram   = metricnoop.Int64Histogram{}
	inferenceRequests  metric.Int64Counter     = metricnoop.Int64Counter{}
)

// InitInstruments creates every pipeline instrument from mp.
func InitInstruments(mp metric.MeterProvider) error {
	if mp == nil {
		return fmt.Errorf("meter provider is nil")
	}
	meter := mp.Meter(InstrumentName)
	var err error
	if recordsExtracted, err = meter.Int64Counter(
		MetricRecordsExtracted,
		metric.WithDescription("Caption records produced by the extractor"),
		metric.WithUnit("{record}"),
	); err != nil {
		return fmt.Errorf("create metric %s: %w", MetricRecordsExtracted, err)
	}
	if shuffleFallbacks, err = meter.Int64Counter(
		MetricShuffleFallbacks,
		metric.WithDescription("Shuffles that fell back to round-robin interleaving"),
		metric.WithUnit("1"),
	); err != nil {
		return fmt.Errorf("create metric %s: %w", MetricShuffleFallbacks, err)
	}
	if evaluationDuration, err = meter.Float64Histogram(
		MetricEvaluationDuration,
		metric.WithDescription("Duration of one evaluation call"),
		metric.WithUnit("s"),
	); err != nil {
		return fmt.Errorf("create metric %s: %w", MetricEvaluationDuration, err)
	}
	if alignedImages, err = meter.Int64Histogram(
		MetricAlignedImages,
		metric.WithDescription("Images shared by groundtruth and predictions"),
		metric.WithUnit("{image}"),
	); err != nil {
		return fmt.Errorf("create metric %s: %w", MetricAlignedImages, err)
	}
	if inferenceRequests, err = meter.Int64Counter(
		MetricInferenceRequests,
		metric.WithDescription("Caption requests sent to a model backend"),
		metric.WithUnit("1"),
	); err != nil {
		return fmt.Errorf("create metric %s: %w", MetricInferenceRequests, err)
	}
	MeterProvider = mp
	return nil
}

// SetTracerProvider replaces Tracer with one from tp.
func SetTracerProvider(tp trace.TracerProvider) {
	Tracer = tp.Tracer(InstrumentName)
}

// AddRecordsExtracted counts records produced for split.
func AddRecordsExtracted(ctx context.Context, split string, n int) {
	recordsExtracted.Add(ctx, int64(n), metric.WithAttributes(attribute.String(KeySplit, split)))
}

// IncShuffleFallback counts one round-robin fallback.
func IncShuffleFallback(ctx context.Context) {
	shuffleFallbacks.Add(ctx, 1)
}

// RecordEvaluation records the duration and aligned size of one evaluation.
func RecordEvaluation(ctx context.Context, d time.Duration, aligned int) {
	evaluationDuration.Record(ctx, d.Seconds())
	alignedImages.Record(ctx, int64(aligned))
}

// IncInferenceRequest counts one captioning request with its outcome.
func IncInferenceRequest(ctx context.Context, backend string, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	inferenceRequests.Add(ctx, 1, metric.WithAttributes(
		attribute.String(KeyBackend, backend),
		attribute.String(KeyStatus, status),
	))
}

// NewGRPCConn creates a new gRPC connection to the OpenTelemetry Collector.
func NewGRPCConn(endpoint string) (*grpc.ClientConn, error) {
	// Insecure transport; put a TLS-terminating collector in front in production.
	conn, err := grpcDial(endpoint,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create gRPC connection to collector: %w", err)
	}
	return conn, nil
}
