// Package telemetry provides OpenTelemetry tracing helpers for the NFSv4
// client core. It intentionally stops short of SDK/exporter wiring: a host
// process that wants spans exported calls otel.SetTracerProvider itself;
// this package only ever asks the global otel API for a tracer, so it stays
// a no-op until that happens.
package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/wujs/libnfs/internal/nfs4/client"

// Tracer returns the tracer this package uses for every span it starts.
func Tracer() trace.Tracer {
	return otel.Tracer(instrumentationName)
}

// Attribute keys, following the same "fs."/"rpc."/"nfs." prefix convention
// used across the wider protocol stack this client was grounded on.
const (
	AttrServer    = "nfs.server"
	AttrExport    = "nfs.export"
	AttrPath      = "fs.path"
	AttrOperation = "fs.operation"
	AttrStatus    = "fs.status"
	AttrRPCXID    = "rpc.xid"
)

// Server returns an attribute for the target server address.
func Server(addr string) attribute.KeyValue { return attribute.String(AttrServer, addr) }

// Export returns an attribute for the mounted export path.
func Export(export string) attribute.KeyValue { return attribute.String(AttrExport, export) }

// Path returns an attribute for the operation's resolved path.
func Path(path string) attribute.KeyValue { return attribute.String(AttrPath, path) }

// Status returns an attribute for the operation's terminal errno (0 on success).
func Status(status int) attribute.KeyValue { return attribute.Int(AttrStatus, status) }

// StartMountSpan starts the span covering one full MountAsync continuation chain.
func StartMountSpan(ctx context.Context, server, export string) (context.Context, trace.Span) {
	return Tracer().Start(ctx, "nfs4.mount", trace.WithAttributes(
		attribute.String(AttrOperation, "mount"),
		Server(server),
		Export(export),
	))
}

// StartStatSpan starts the span covering one full StatAsync continuation chain.
func StartStatSpan(ctx context.Context, path string) (context.Context, trace.Span) {
	return Tracer().Start(ctx, "nfs4.stat", trace.WithAttributes(
		attribute.String(AttrOperation, "stat"),
		Path(path),
	))
}
