package transform

import (
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"
	"sort"

	"github.com/yndnr/seqlink-go/pkg/crypto/adaptive"
)

const (
	keySize = 32

	// MaxGeneration is the number of frames a chain can produce before the
	// conversation must be re-keyed with a new handshake.
	MaxGeneration = 1 << 32

	// DefaultMaxFrameSize is the largest plaintext accepted by Encode.
	DefaultMaxFrameSize = 1 << 20

	frameVersion = 1
	headerSize   = 3

	flagCompressed = 0x01
)

var cipherIDs = map[adaptive.CipherType]byte{
	adaptive.CipherAESGCM:   1,
	adaptive.CipherChaCha20: 2,
}

func cipherByID(id byte) (adaptive.CipherType, bool) {
	for typ, v := range cipherIDs {
		if v == id {
			return typ, true
		}
	}
	return "", false
}

// Ratchet is a symmetric hash-chain transform. Each frame is sealed with a
// one-time key derived from the chain, and the chain key is replaced after
// every step so earlier keys cannot be recomputed from the state.
//
// Frame layout: [version:1][cipher:1][flags:1][nonce || ciphertext || tag].
// The header, the caller's associated data and the sequence number are all
// authenticated.
type Ratchet struct {
	cipher       adaptive.CipherType
	compress     bool
	maxFrameSize int
}

// Option configures a Ratchet.
type Option func(*Ratchet)

// WithCipher selects the AEAD used for outbound frames. Inbound frames name
// their own cipher in the header.
func WithCipher(t adaptive.CipherType) Option {
	return func(r *Ratchet) {
		r.cipher = t.Resolve()
	}
}

// WithCompression enables LZ4 compression of outbound payloads when it
// makes them smaller.
func WithCompression(enabled bool) Option {
	return func(r *Ratchet) {
		r.compress = enabled
	}
}

// WithMaxFrameSize sets the plaintext size limit.
func WithMaxFrameSize(n int) Option {
	return func(r *Ratchet) {
		if n > 0 {
			r.maxFrameSize = n
		}
	}
}

// NewRatchet creates a ratchet transform.
func NewRatchet(opts ...Option) *Ratchet {
	r := &Ratchet{
		cipher:       adaptive.CipherAuto.Resolve(),
		maxFrameSize: DefaultMaxFrameSize,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// MaxFrameSize returns the plaintext size limit.
func (r *Ratchet) MaxFrameSize() int {
	return r.maxFrameSize
}

// Seed implements Transform.
func (r *Ratchet) Seed(seed []byte, maxSkip int) ([]byte, error) {
	if len(seed) != keySize {
		return nil, fmt.Errorf("transform: seed must be %d bytes", keySize)
	}
	if maxSkip < 1 {
		maxSkip = 1
	}
	return encodeState(&chainState{
		ChainKey: append([]byte(nil), seed...),
		MaxSkip:  maxSkip,
	})
}

// Encode implements Transform.
func (r *Ratchet) Encode(state, plaintext, ad []byte) ([]byte, uint64, []byte, error) {
	if len(plaintext) > r.maxFrameSize {
		return nil, 0, nil, ErrFrameTooLarge
	}
	st, err := decodeState(state)
	if err != nil {
		return nil, 0, nil, err
	}
	if st.Generation >= MaxGeneration {
		return nil, 0, nil, ErrExhausted
	}

	seq := st.Generation
	nextKey, msgKey := step(st.ChainKey)

	header := []byte{frameVersion, cipherIDs[r.cipher], 0}
	body := plaintext
	if r.compress {
		if packed, ok := compress(plaintext); ok {
			body = packed
			header[2] |= flagCompressed
		}
	}

	aead, err := adaptive.NewWithType(msgKey, r.cipher)
	if err != nil {
		return nil, 0, nil, err
	}
	sealed, err := aead.Encrypt(body, associatedData(header, ad, seq))
	if err != nil {
		return nil, 0, nil, err
	}

	next := st.clone()
	next.ChainKey = nextKey
	next.Generation = seq + 1
	out, err := encodeState(next)
	if err != nil {
		return nil, 0, nil, err
	}

	frame := make([]byte, 0, headerSize+len(sealed))
	frame = append(frame, header...)
	frame = append(frame, sealed...)
	return out, seq, frame, nil
}

// Decode implements Transform.
func (r *Ratchet) Decode(state []byte, seq uint64, frame, ad []byte) ([]byte, []byte, error) {
	st, err := decodeState(state)
	if err != nil {
		return nil, nil, err
	}
	if len(frame) < headerSize {
		return nil, nil, fmt.Errorf("%w: short frame", ErrDecode)
	}
	header := frame[:headerSize]
	if header[0] != frameVersion {
		return nil, nil, fmt.Errorf("%w: unsupported frame version %d", ErrDecode, header[0])
	}
	cipherType, ok := cipherByID(header[1])
	if !ok {
		return nil, nil, fmt.Errorf("%w: unknown cipher id %d", ErrDecode, header[1])
	}
	if len(frame) > headerSize+r.maxFrameSize+64 {
		return nil, nil, ErrFrameTooLarge
	}

	next := st.clone()
	msgKey, err := next.keyFor(seq)
	if err != nil {
		return nil, nil, err
	}

	aead, err := adaptive.NewWithType(msgKey, cipherType)
	if err != nil {
		return nil, nil, err
	}
	body, err := aead.Decrypt(frame[headerSize:], associatedData(header, ad, seq))
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	plaintext := body
	if header[2]&flagCompressed != 0 {
		plaintext, err = decompress(body, r.maxFrameSize)
		if err != nil {
			if errors.Is(err, ErrFrameTooLarge) {
				return nil, nil, err
			}
			return nil, nil, fmt.Errorf("%w: decompress: %v", ErrDecode, err)
		}
	}

	next.evict()
	out, err := encodeState(next)
	if err != nil {
		return nil, nil, err
	}
	return out, plaintext, nil
}

// Prune implements Pruner.
func (r *Ratchet) Prune(state []byte, floor uint64) ([]byte, error) {
	st, err := decodeState(state)
	if err != nil {
		return nil, err
	}
	pruned := false
	for gen := range st.Skipped {
		if gen < floor {
			delete(st.Skipped, gen)
			pruned = true
		}
	}
	if !pruned {
		return state, nil
	}
	return encodeState(st)
}

// Position implements Position.
func (r *Ratchet) Position(state []byte) (uint64, error) {
	st, err := decodeState(state)
	if err != nil {
		return 0, err
	}
	return st.Generation, nil
}

// Retained reports how many out-of-order keys a state holds.
func (r *Ratchet) Retained(state []byte) (int, error) {
	st, err := decodeState(state)
	if err != nil {
		return 0, err
	}
	return len(st.Skipped), nil
}

// keyFor returns the message key for seq, advancing the chain and caching
// the chain keys of skipped generations when seq is ahead.
func (s *chainState) keyFor(seq uint64) ([]byte, error) {
	if seq < s.Generation {
		ck, ok := s.Skipped[seq]
		if !ok {
			return nil, fmt.Errorf("%w: no key retained for seq %d", ErrDecode, seq)
		}
		delete(s.Skipped, seq)
		_, msgKey := step(ck)
		return msgKey, nil
	}

	if seq-s.Generation > uint64(s.MaxSkip) || seq >= MaxGeneration {
		return nil, fmt.Errorf("%w: seq %d too far ahead of %d", ErrDecode, seq, s.Generation)
	}
	if s.Skipped == nil && seq > s.Generation {
		s.Skipped = make(map[uint64][]byte)
	}
	ck := s.ChainKey
	for gen := s.Generation; gen < seq; gen++ {
		s.Skipped[gen] = ck
		ck, _ = step(ck)
	}
	nextKey, msgKey := step(ck)
	s.ChainKey = nextKey
	s.Generation = seq + 1
	return msgKey, nil
}

// evict drops the oldest retained keys beyond MaxSkip.
func (s *chainState) evict() {
	excess := len(s.Skipped) - s.MaxSkip
	if excess <= 0 {
		return
	}
	gens := make([]uint64, 0, len(s.Skipped))
	for gen := range s.Skipped {
		gens = append(gens, gen)
	}
	sort.Slice(gens, func(i, j int) bool { return gens[i] < gens[j] })
	for _, gen := range gens[:excess] {
		delete(s.Skipped, gen)
	}
}

// step derives (nextChainKey, messageKey) from a chain key.
func step(chainKey []byte) ([]byte, []byte) {
	h := sha256.New()
	h.Write(chainKey)
	h.Write([]byte{0x01})
	msgKey := h.Sum(nil)

	h.Reset()
	h.Write(chainKey)
	h.Write([]byte{0x02})
	return h.Sum(nil), msgKey
}

func associatedData(header, ad []byte, seq uint64) []byte {
	out := make([]byte, 0, len(header)+len(ad)+8)
	out = append(out, header...)
	out = append(out, ad...)
	return binary.BigEndian.AppendUint64(out, seq)
}
