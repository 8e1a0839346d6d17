// Package codec centralizes the encoding of plan explains and result sets.
//
// Explain output is compared byte for byte to decide whether an optimizer pass
// changed a plan, so a codec must be deterministic for a given value.
package codec

// Codec encodes/decodes values.
// Implementations must be safe for concurrent use.
type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
	Name() string
}

// Default is the codec used for explains and result sets.
var Default Codec = GoJSON{}
