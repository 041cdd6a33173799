package logger

import (
	"time"

	"go.uber.org/zap"
)

// Typed field constructors so call sites agree on field names.

// RequestID tags an entry with the request id.
func RequestID(v string) zap.Field {
	return zap.String("request_id", v)
}

// Layer identifies the architectural layer emitting the entry
// ("controller", "service", "store").
func Layer(v string) zap.Field {
	return zap.String("layer", v)
}

// Component identifies the emitting component ("auth.login", "store.pg").
func Component(v string) zap.Field {
	return zap.String("component", v)
}

// Op identifies the operation in progress.
func Op(v string) zap.Field {
	return zap.String("op", v)
}

// AccountID tags an entry with the acting account.
func AccountID(v string) zap.Field {
	return zap.String("account_id", v)
}

// Action tags an entry with an audit action kind.
func Action(v string) zap.Field {
	return zap.String("action", v)
}

// ClientIP tags an entry with the caller's IP.
func ClientIP(v string) zap.Field {
	return zap.String("client_ip", v)
}

// UserAgent tags an entry with the caller's User-Agent.
func UserAgent(v string) zap.Field {
	return zap.String("user_agent", v)
}

// Method tags an entry with the HTTP method.
func Method(v string) zap.Field {
	return zap.String("method", v)
}

// Path tags an entry with the request path.
func Path(v string) zap.Field {
	return zap.String("path", v)
}

// Status tags an entry with the HTTP status code.
func Status(v int) zap.Field {
	return zap.Int("status", v)
}

// Duration tags an entry with an elapsed time.
func Duration(v time.Duration) zap.Field {
	return zap.Duration("duration", v)
}

// Err wraps an error as a field. Accepts nil.
func Err(err error) zap.Field {
	return zap.Error(err)
}

// String is a passthrough for ad-hoc fields.
func String(key, v string) zap.Field {
	return zap.String(key, v)
}

// Int is a passthrough for ad-hoc fields.
func Int(key string, v int) zap.Field {
	return zap.Int(key, v)
}

// Any is a passthrough for arbitrary values (panics, raw payloads).
func Any(key string, v any) zap.Field {
	return zap.Any(key, v)
}
