package event

import (
	"encoding/json"
	"fmt"
)

// DecodePayload returns the payload as T. In-process buses hand over the
// struct itself; payloads that crossed Redis arrive as raw JSON or as the
// generic map produced by decoding the envelope, and are converted.
func DecodePayload[T any](input any) (T, error) {
	var result T
	switch v := input.(type) {
	case T:
		return v, nil
	case *T:
		if v == nil {
			return result, fmt.Errorf("nil %T payload", v)
		}
		return *v, nil
	case json.RawMessage:
		return result, json.Unmarshal(v, &result)
	case []byte:
		return result, json.Unmarshal(v, &result)
	case nil:
		return result, fmt.Errorf("missing payload, want %T", result)
	}

	data, err := json.Marshal(input)
	if err != nil {
		return result, err
	}
	return result, json.Unmarshal(data, &result)
}
