package simd

import "encoding/json"

// JSONCodec is a grpc encoding.Codec that marshals messages as JSON instead
// of protobuf wire format: this kernel's gRPC messages are plain Go structs
// (see grpc_server.go) with no protoc-generated gen/go/simulation/v1
// package behind them, so the codec grpc.Server uses to (de)serialize them
// has to be JSON. cmd/simd installs it with grpc.ForceServerCodec in place
// of the "proto" codec grpc-go assumes by default.
type JSONCodec struct{}

func (JSONCodec) Name() string { return "json" }

func (JSONCodec) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (JSONCodec) Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}
