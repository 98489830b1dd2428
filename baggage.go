package movetrace

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/baggage"
)

// BaggageRequestID is the baggage key carrying the ingress request identifier.
const BaggageRequestID = "request.id"

// MaxRequestIDLen is the longest inbound request identifier accepted.
const MaxRequestIDLen = 128

// SetBaggage adds a key-value pair to baggage in the context.
//
// Keys and values must conform to the W3C Baggage specification:
//   - Keys: Must be valid HTTP header tokens (alphanumeric, hyphen, underscore, tilde).
//   - Values: Must be percent-encoded if containing special characters.
//
// Returns an error if key or value violates these constraints.
func SetBaggage(ctx context.Context, key, value string) (context.Context, error) {
	bag := baggage.FromContext(ctx)
	member, err := baggage.NewMember(key, value)
	if err != nil {
		return ctx, fmt.Errorf("create baggage member: %w", err)
	}
	bag, err = bag.SetMember(member)
	if err != nil {
		return ctx, fmt.Errorf("set baggage member: %w", err)
	}

	return baggage.ContextWithBaggage(ctx, bag), nil
}

// GetBaggage retrieves a value from baggage in the context.
func GetBaggage(ctx context.Context, key string) string {
	bag := baggage.FromContext(ctx)
	return bag.Member(key).Value()
}

// WithRequestID stores the request identifier in baggage.
// Identifiers that are not valid baggage values are dropped and ctx is returned unchanged.
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	newCtx, err := SetBaggage(ctx, BaggageRequestID, id)
	if err != nil {
		return ctx
	}

	return newCtx
}

// RequestID returns the request identifier stored by WithRequestID, or "".
func RequestID(ctx context.Context) string {
	return GetBaggage(ctx, BaggageRequestID)
}

// ValidRequestID reports whether an inbound request identifier is short and made of
// URL-safe characters. Ingress replaces anything else with a generated one.
func ValidRequestID(id string) bool {
	if id == "" || len(id) > MaxRequestIDLen {
		return false
	}
	for _, c := range id {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		case c == '-', c == '_', c == '.', c == '~':
		default:
			return false
		}
	}

	return true
}
