package httputil

import (
	"bytes"
	"encoding/json"
)

// OptionalString distinguishes an absent JSON member from an explicit null,
// which *string alone cannot (RFC 7396 merge patch).
//   - Present=false: member absent (keep current value)
//   - Present=true, Value=nil: member is null (clear)
//   - Present=true, Value=&"text": member has a value
type OptionalString struct {
	Present bool
	Value   *string
}

// UnmarshalJSON is only called for members present in the document.
func (o *OptionalString) UnmarshalJSON(data []byte) error {
	o.Present = true

	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		o.Value = nil
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	o.Value = &s
	return nil
}
