// Package grpcsrv wraps internal/rpc's GenericServer in a bidirectional
// gRPC streaming service, the same Stream-shaped transport the teacher
// uses for its own delivery façade (internal/handler/grpc/delivery.go):
// one long-lived stream, one request in, one reply out, looped until the
// client closes it.
package grpcsrv

import (
	"encoding/json"
	"fmt"

	"google.golang.org/grpc/encoding"
)

// codecName is negotiated via the gRPC content-subtype
// ("application/grpc+nexosim-json"). There is no generated protobuf
// service here (the spec treats the wire façade's transport polish as a
// sketch/Non-goal) so envelopes travel as JSON instead of a compiled
// .proto message, while still riding gRPC's real framing, flow control
// and streaming semantics.
const codecName = "nexosim-json"

type jsonCodec struct{}

func (jsonCodec) Marshal(v any) ([]byte, error) { return json.Marshal(v) }

func (jsonCodec) Unmarshal(data []byte, v any) error {
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("grpcsrv: decoding message: %w", err)
	}
	return nil
}

func (jsonCodec) Name() string { return codecName }

func init() {
	encoding.RegisterCodec(jsonCodec{})
}
