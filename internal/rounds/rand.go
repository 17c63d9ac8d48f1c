package rounds

import (
	"hash/fnv"
	"math/rand/v2"
)

// NewRand returns a request-local generator. A non-empty seed makes the
// sequence reproducible; an empty seed draws from the global source.
func NewRand(seed string) *rand.Rand {
	if seed == "" {
		return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	h := fnv.New64a()
	_, _ = h.Write([]byte(seed))
	hi := h.Sum64()
	_, _ = h.Write([]byte{0})
	return rand.New(rand.NewPCG(hi, h.Sum64()))
}
