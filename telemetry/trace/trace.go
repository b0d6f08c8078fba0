//
// Tencent is pleased to support the open source community by making trpc-caption-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-caption-go is licensed under the Apache License Version 2.0.
//
//

// Package trace wires an OTLP tracer provider for the pipeline spans
// (dataset preparation, evaluation, inference).
package trace

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"

	itelemetry "trpc.group/trpc-go/trpc-caption-go/internal/telemetry"
)

// shutdownTimeout bounds the flush performed by the cleanup returned from Start.
const shutdownTimeout = 5 * time.Second

// Tracer is the pipeline tracer. It is a no-op until Start succeeds.
var Tracer trace.Tracer = itelemetry.Tracer

// Start builds an OTLP tracer provider, installs it globally and as the pipeline
// tracer, and returns a cleanup that flushes and shuts it down.
func Start(ctx context.Context, opts ...Option) (clean func() error, err error) {
	options := &options{
		serviceName:      itelemetry.ServiceName,
		serviceVersion:   itelemetry.ServiceVersion,
		serviceNamespace: itelemetry.ServiceNamespace,
		protocol:         itelemetry.ProtocolGRPC,
	}
	for _, opt := range opts {
		opt(options)
	}
	if options.tracesEndpoint == "" {
		options.tracesEndpoint = tracesEndpoint(options.protocol)
	}

	res, err := buildResource(ctx, options)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	var exporter *otlptrace.Exporter
	switch options.protocol {
	case itelemetry.ProtocolHTTP:
		exporter, err = newHTTPExporter(ctx, options)
	default:
		exporter, err = newGRPCExporter(ctx, options)
	}
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	itelemetry.SetTracerProvider(tp)
	Tracer = itelemetry.Tracer

	return func() error {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return tp.Shutdown(ctx)
	}, nil
}

func newGRPCExporter(ctx context.Context, options *options) (*otlptrace.Exporter, error) {
	endpoint := options.tracesEndpoint
	if options.endpointURL != "" {
		host, _, err := parseEndpointURL(options.endpointURL)
		if err != nil {
			return nil, err
		}
		endpoint = host
	}
	grpcOpts := []otlptracegrpc.Option{
		otlptracegrpc.WithEndpoint(endpoint),
		otlptracegrpc.WithInsecure(),
	}
	if len(options.headers) > 0 {
		grpcOpts = append(grpcOpts, otlptracegrpc.WithHeaders(options.headers))
	}
	exporter, err := otlptracegrpc.New(ctx, grpcOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create gRPC trace exporter: %w", err)
	}
	return exporter, nil
}

func newHTTPExporter(ctx context.Context, options *options) (*otlptrace.Exporter, error) {
	httpOpts := []otlptracehttp.Option{otlptracehttp.WithInsecure()}
	if options.endpointURL != "" {
		host, path, err := parseEndpointURL(options.endpointURL)
		if err != nil {
			return nil, err
		}
		httpOpts = append(httpOpts, otlptracehttp.WithEndpoint(host), otlptracehttp.WithURLPath(path))
	} else {
		httpOpts = append(httpOpts, otlptracehttp.WithEndpoint(options.tracesEndpoint))
	}
	if len(options.headers) > 0 {
		httpOpts = append(httpOpts, otlptracehttp.WithHeaders(options.headers))
	}
	exporter, err := otlptracehttp.New(ctx, httpOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP trace exporter: %w", err)
	}
	return exporter, nil
}

func tracesEndpoint(protocol string) string {
	if endpoint := os.Getenv("OTEL_EXPORTER_OTLP_TRACES_ENDPOINT"); endpoint != "" {
		return endpoint
	}
	if endpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"); endpoint != "" {
		return endpoint
	}
	switch protocol {
	case itelemetry.ProtocolHTTP:
		return "localhost:4318"
	default:
		return "localhost:4317"
	}
}

// parseEndpointURL splits a collector URL into host:port and path.
// A missing scheme is treated as http.
func parseEndpointURL(raw string) (endpoint, urlPath string, err error) {
	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", "", fmt.Errorf("parse endpoint url %q: %w", raw, err)
	}
	if u.Host == "" {
		return "", "", fmt.Errorf("endpoint url %q has no host", raw)
	}
	urlPath = u.Path
	if urlPath == "" {
		urlPath = "/"
	}
	return u.Host, urlPath, nil
}

// Option is a function that configures tracer options.
type Option func(*options)

type options struct {
	tracesEndpoint     string
	endpointURL        string
	protocol           string
	headers            map[string]string
	serviceName        string
	serviceVersion     string
	serviceNamespace   string
	resourceAttributes []attribute.KeyValue
}

// WithEndpoint sets the collector endpoint (host:port, no scheme).
func WithEndpoint(endpoint string) Option {
	return func(opts *options) {
		opts.tracesEndpoint = endpoint
	}
}

// WithEndpointURL sets a full collector URL; it takes precedence over WithEndpoint.
func WithEndpointURL(endpointURL string) Option {
	return func(opts *options) {
		opts.endpointURL = endpointURL
	}
}

// WithProtocol sets the export protocol, "grpc" (default) or "http".
func WithProtocol(protocol string) Option {
	return func(opts *options) {
		opts.protocol = protocol
	}
}

// WithHeaders sets headers sent with every export request.
func WithHeaders(headers map[string]string) Option {
	return func(opts *options) {
		opts.headers = headers
	}
}

// WithServiceName overrides the service.name resource attribute.
func WithServiceName(serviceName string) Option {
	return func(opts *options) {
		opts.serviceName = serviceName
	}
}

// WithServiceNamespace overrides the service.namespace resource attribute.
func WithServiceNamespace(serviceNamespace string) Option {
	return func(opts *options) {
		opts.serviceNamespace = serviceNamespace
	}
}

// WithServiceVersion overrides the service.version resource attribute.
func WithServiceVersion(serviceVersion string) Option {
	return func(opts *options) {
		opts.serviceVersion = serviceVersion
	}
}

// WithResourceAttributes appends custom resource attributes. They win over
// OTEL_RESOURCE_ATTRIBUTES for the same key.
func WithResourceAttributes(attrs ...attribute.KeyValue) Option {
	return func(opts *options) {
		opts.resourceAttributes = append(opts.resourceAttributes, attrs...)
	}
}

func buildResource(ctx context.Context, options *options) (*resource.Resource, error) {
	resourceOpts := []resource.Option{
		resource.WithAttributes(
			semconv.ServiceNamespace(options.serviceNamespace),
			semconv.ServiceName(options.serviceName),
			semconv.ServiceVersion(options.serviceVersion),
		),
		resource.WithFromEnv(),
		resource.WithHost(),
		resource.WithTelemetrySDK(),
	}
	if len(options.resourceAttributes) > 0 {
		resourceOpts = append(resourceOpts, resource.WithAttributes(options.resourceAttributes...))
	}
	return resource.New(ctx, resourceOpts...)
}
