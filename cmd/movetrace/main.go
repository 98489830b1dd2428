// Movetrace serves dance moves over HTTP and gRPC, tracing every request.
//
// Usage:
//
//	# Start the service with defaults and environment overrides
//	movetrace serve
//
//	# Start with a config file
//	movetrace serve --config /etc/movetrace/config.yaml
//
//	# Send the sample requests to a running service
//	movetrace probe --url http://localhost:1991/api/v1
//
//	# Show version information
//	movetrace version
package main

func main() {
	Execute()
}
