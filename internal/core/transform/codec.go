package transform

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"hash/crc32"
)

const stateVersion = 1

// chainState is the persisted form of one ratchet direction.
type chainState struct {
	ChainKey   []byte            `json:"ck"`
	Generation uint64            `json:"gen"`
	MaxSkip    int               `json:"max"`
	Skipped    map[uint64][]byte `json:"skip,omitempty"`
}

func (s *chainState) clone() *chainState {
	out := &chainState{
		ChainKey:   append([]byte(nil), s.ChainKey...),
		Generation: s.Generation,
		MaxSkip:    s.MaxSkip,
	}
	if len(s.Skipped) > 0 {
		out.Skipped = make(map[uint64][]byte, len(s.Skipped))
		for gen, ck := range s.Skipped {
			out.Skipped[gen] = ck
		}
	}
	return out
}

// encodeState frames the JSON payload as [crc32:4][version:1][payload...].
func encodeState(s *chainState) ([]byte, error) {
	payload, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("transform: marshal state: %w", err)
	}

	out := make([]byte, 5, 5+len(payload))
	out[4] = stateVersion
	out = append(out, payload...)
	binary.BigEndian.PutUint32(out[:4], crc32.ChecksumIEEE(out[4:]))
	return out, nil
}

func decodeState(b []byte) (*chainState, error) {
	if len(b) < 5 {
		return nil, fmt.Errorf("%w: short buffer", ErrState)
	}
	if crc32.ChecksumIEEE(b[4:]) != binary.BigEndian.Uint32(b[:4]) {
		return nil, fmt.Errorf("%w: checksum mismatch", ErrState)
	}
	if b[4] != stateVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrState, b[4])
	}

	var s chainState
	if err := json.Unmarshal(b[5:], &s); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrState, err)
	}
	if len(s.ChainKey) != keySize {
		return nil, fmt.Errorf("%w: chain key length %d", ErrState, len(s.ChainKey))
	}
	return &s, nil
}
