package cache

import (
	"errors"
	"fmt"

	"github.com/klauspost/compress/s2"
)

// DefaultCompactThreshold is the envelope size above which tier-2 writes are compacted.
const DefaultCompactThreshold = 50000

// Every tier-2 payload starts with one of these markers.
const (
	markerRaw     byte = 'r'
	markerCompact byte = 's'
)

var errCorruptPayload = errors.New("cache: corrupt tier-2 payload")

func compact(envelope []byte, threshold int) []byte {
	if threshold > 0 && len(envelope) > threshold {
		out := make([]byte, 1, 1+s2.MaxEncodedLen(len(envelope)))
		out[0] = markerCompact
		return append(out, s2.Encode(nil, envelope)...)
	}
	out := make([]byte, 0, len(envelope)+1)
	out = append(out, markerRaw)
	return append(out, envelope...)
}

func decompact(payload []byte) ([]byte, error) {
	if len(payload) == 0 {
		return nil, errCorruptPayload
	}
	switch payload[0] {
	case markerRaw:
		return payload[1:], nil
	case markerCompact:
		out, err := s2.Decode(nil, payload[1:])
		if err != nil {
			return nil, fmt.Errorf("%w: %v", errCorruptPayload, err)
		}
		return out, nil
	default:
		return nil, errCorruptPayload
	}
}
