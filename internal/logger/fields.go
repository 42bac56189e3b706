package logger

import (
	"fmt"
	"log/slog"
)

// Standard field keys for structured logging across the client core.
// Use these keys consistently across all log statements for log aggregation
// and querying.
const (
	// Distributed tracing
	KeyTraceID = "trace_id"
	KeySpanID  = "span_id"

	// Operation identity
	KeyOperation = "operation" // mount, stat64, setclientid, ...
	KeyServer    = "server"    // server address
	KeyPath      = "path"      // path being resolved
	KeyOp        = "op"        // NFSv4 sub-operation name (PUTFH, LOOKUP, ...)

	// File attributes
	KeyHandle = "handle" // file handle, hex-encoded
	KeySize   = "size"
	KeyMode   = "mode"
	KeyUID    = "uid"
	KeyGID    = "gid"

	// RPC / status
	KeyStatus     = "status"     // nfsstat4 numeric value
	KeyStatusName = "status_msg" // nfsstat4 name
	KeyRPCStatus  = "rpc_status" // RPC_STATUS_* value

	// Operation metadata
	KeyDurationMs = "duration_ms"
	KeyError      = "error"
	KeyErrno      = "errno"
)

// TraceID returns a slog.Attr for the OpenTelemetry trace ID
func TraceID(id string) slog.Attr {
	return slog.String(KeyTraceID, id)
}

// SpanID returns a slog.Attr for the OpenTelemetry span ID
func SpanID(id string) slog.Attr {
	return slog.String(KeySpanID, id)
}

// Operation returns a slog.Attr for the client operation name
func Operation(name string) slog.Attr {
	return slog.String(KeyOperation, name)
}

// Server returns a slog.Attr for the server address
func Server(addr string) slog.Attr {
	return slog.String(KeyServer, addr)
}

// Path returns a slog.Attr for a resolved path
func Path(p string) slog.Attr {
	return slog.String(KeyPath, p)
}

// Op returns a slog.Attr for an NFSv4 sub-operation name
func Op(name string) slog.Attr {
	return slog.String(KeyOp, name)
}

// Handle returns a slog.Attr for a file handle (formatted as hex)
func Handle(h []byte) slog.Attr {
	return slog.String(KeyHandle, fmt.Sprintf("%x", h))
}

// Size returns a slog.Attr for a file size
func Size(s uint64) slog.Attr {
	return slog.Uint64(KeySize, s)
}

// Mode returns a slog.Attr for a file mode
func Mode(m uint32) slog.Attr {
	return slog.Any(KeyMode, m)
}

// UID returns a slog.Attr for a user ID
func UID(uid uint32) slog.Attr {
	return slog.Any(KeyUID, uid)
}

// GID returns a slog.Attr for a group ID
func GID(gid uint32) slog.Attr {
	return slog.Any(KeyGID, gid)
}

// Status returns a slog.Attr for an nfsstat4 value
func Status(code uint32) slog.Attr {
	return slog.Any(KeyStatus, code)
}

// StatusName returns a slog.Attr for an nfsstat4 name
func StatusName(name string) slog.Attr {
	return slog.String(KeyStatusName, name)
}

// RPCStatus returns a slog.Attr for an RPC-layer status
func RPCStatus(name string) slog.Attr {
	return slog.String(KeyRPCStatus, name)
}

// DurationMs returns a slog.Attr for duration in milliseconds
func DurationMs(ms float64) slog.Attr {
	return slog.Float64(KeyDurationMs, ms)
}

// Err returns a slog.Attr for an error
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}

// Errno returns a slog.Attr for a negative-errno style result code
func Errno(code int) slog.Attr {
	return slog.Int(KeyErrno, code)
}
