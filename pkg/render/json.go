package render

import (
	"encoding/json"

	apperrors "github.com/lanegraph/lanegraph/pkg/errors"
	"github.com/lanegraph/lanegraph/pkg/lanes"
)

// MarshalLayout serializes a layout for storage, caching and the HTTP
// API.
func MarshalLayout(l *lanes.Layout) ([]byte, error) {
	data, err := json.Marshal(l)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInternal, err, "marshal layout")
	}
	return data, nil
}

// UnmarshalLayout is the inverse of [MarshalLayout].
func UnmarshalLayout(data []byte) (*lanes.Layout, error) {
	var l lanes.Layout
	if err := json.Unmarshal(data, &l); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInvalidFormat, err, "unmarshal layout")
	}
	return &l, nil
}
