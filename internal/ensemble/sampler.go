package ensemble

import (
	"encoding/binary"
	"math/rand/v2"
)

// Stream identifies an independent source of randomness within a member.
// Components that must be correlated share a stream; all others get their
// own so that adding a draw to one model never shifts another's samples.
type Stream uint8

const (
	StreamDriver Stream = iota + 1 // shared by tas and zostoga
	StreamGlacier
	StreamGreenSMB
	StreamAntSMB
	StreamAntFraction // shared by antsmb and antdyn
	StreamGreenDyn
	StreamLandWater
	StreamLandWaterNoise
)

// Sampler is the explicit sampling context threaded through the builders and
// models.
//
// # Determinism
//
// Each (member, stream) pair gets its own ChaCha8 generator whose key is
// derived only from the master seed, the member index and the stream. The
// draws seen by a member therefore do not depend on how members are sharded
// across workers or in which order they run.
type Sampler struct {
	seed int64
}

// NewSampler returns a sampler for the master seed.
func NewSampler(seed int64) *Sampler {
	return &Sampler{seed: seed}
}

// Seed returns the master seed.
func (s *Sampler) Seed() int64 { return s.seed }

// Rand returns a fresh generator for member m on stream st.
func (s *Sampler) Rand(m int, st Stream) *rand.Rand {
	var key [32]byte
	binary.LittleEndian.PutUint64(key[0:8], uint64(s.seed))
	binary.LittleEndian.PutUint64(key[8:16], uint64(m))
	key[16] = byte(st)
	return rand.New(rand.NewChaCha8(key))
}

// OpenUnit draws from the open interval (0, 1).
func OpenUnit(r *rand.Rand) float64 {
	return (float64(r.Uint64()>>11) + 0.5) / (1 << 53)
}
