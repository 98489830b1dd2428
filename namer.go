package movetrace

// SpanNamer defines how operation names are transformed into span names.
type SpanNamer interface {
	Name(operation string) string
}

// DefaultNamer returns operation names unchanged.
// This complies with OpenTelemetry semantic conventions which recommend
// using the raw operation name without service prefixes.
type DefaultNamer struct{}

// Name returns the operation name as is.
func (DefaultNamer) Name(operation string) string {
	return operation
}

// PrefixNamer prepends a fixed prefix and a dot to every operation name.
type PrefixNamer struct {
	Prefix string
}

// Name returns "Prefix.operation", or operation when Prefix is empty.
func (n PrefixNamer) Name(operation string) string {
	if n.Prefix == "" {
		return operation
	}

	return n.Prefix + "." + operation
}

// NameHTTP returns a compliant span name for an HTTP request: "METHOD /route".
// Example: "GET /api/v1"
func NameHTTP(method, route string) string {
	return method + " " + route
}

// NameRPC returns a compliant span name for an RPC call: "Service/Method".
// Example: "movetrace.MoveService/GetMove"
func NameRPC(service, method string) string {
	return service + "/" + method
}

// NameDB returns a compliant span name for a data-access operation: "verb table".
// Example: "lookup moves"
func NameDB(verb, table string) string {
	return verb + " " + table
}

// NameLayer returns the span name of an in-process layer: "Component.Operation".
// Example: "MoveHandler.GetMoveByName"
func NameLayer(component, operation string) string {
	return component + "." + operation
}
