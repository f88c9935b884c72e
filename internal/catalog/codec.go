package catalog

import (
	"bytes"
	"compress/gzip"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/Softbalance/equipment/internal/model"
)

// ErrBadBlob marks a settings blob that cannot be decoded.
var ErrBadBlob = errors.New("invalid settings blob")

// maxBlobSize bounds the inflated JSON of a blob.
const maxBlobSize = 1 << 20

// Pack encodes values as base64(gzip(JSON)).
func Pack(values model.SettingsValues) (string, error) {
	data, err := json.Marshal(values)
	if err != nil {
		return "", fmt.Errorf("marshal settings: %w", err)
	}

	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(data); err != nil {
		return "", fmt.Errorf("compress settings: %w", err)
	}
	if err := zw.Close(); err != nil {
		return "", fmt.Errorf("compress settings: %w", err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// Unpack reverses Pack.
func Unpack(blob string) (model.SettingsValues, error) {
	var values model.SettingsValues

	raw, err := base64.StdEncoding.DecodeString(blob)
	if err != nil {
		return values, fmt.Errorf("%w: %w", ErrBadBlob, err)
	}
	zr, err := gzip.NewReader(bytes.NewReader(raw))
	if err != nil {
		return values, fmt.Errorf("%w: %w", ErrBadBlob, err)
	}
	defer zr.Close()

	data, err := io.ReadAll(io.LimitReader(zr, maxBlobSize))
	if err != nil {
		return values, fmt.Errorf("%w: %w", ErrBadBlob, err)
	}
	if err := json.Unmarshal(data, &values); err != nil {
		return values, fmt.Errorf("%w: %w", ErrBadBlob, err)
	}
	return values, nil
}
