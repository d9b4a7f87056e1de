package palacev1

import (
	"encoding/json"
	"fmt"

	"google.golang.org/grpc/encoding"
)

// ContentSubtype selects the JSON codec for calls on both services
// (content-type application/grpc+json).
const ContentSubtype = "json"

func init() {
	encoding.RegisterCodec(jsonCodec{})
}

// jsonCodec marshals wire messages as JSON over gRPC framing.
type jsonCodec struct{}

func (jsonCodec) Marshal(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal %T: %w", v, err)
	}
	return data, nil
}

func (jsonCodec) Unmarshal(data []byte, v any) error {
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("unmarshal %T: %w", v, err)
	}
	return nil
}

func (jsonCodec) Name() string {
	return ContentSubtype
}
