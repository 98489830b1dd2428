package movetrace

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNamerHelpers(t *testing.T) {
	// DefaultNamer conforms to OTel spec (pass-through)
	assert.Equal(t, "operation", DefaultNamer{}.Name("operation"))

	assert.Equal(t, "edge.operation", PrefixNamer{Prefix: "edge"}.Name("operation"))
	assert.Equal(t, "operation", PrefixNamer{}.Name("operation"))

	assert.Equal(t, "GET /api/v1", NameHTTP("GET", "/api/v1"))
	assert.Equal(t, "movetrace.MoveService/GetMove", NameRPC("movetrace.MoveService", "GetMove"))
	assert.Equal(t, "lookup moves", NameDB("lookup", "moves"))
	assert.Equal(t, "MoveHandler.GetMoveByName", NameLayer("MoveHandler", "GetMoveByName"))
}
