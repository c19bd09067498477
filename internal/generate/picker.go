package generate

import (
	"hash/fnv"
	"math/rand/v2"
)

// Picker selects one of n phrase variants. Pick must return a value in [0, n).
type Picker interface {
	Pick(n int) int
}

type randPicker struct {
	r *rand.Rand
}

func (p randPicker) Pick(n int) int {
	if n <= 1 {
		return 0
	}
	return p.r.IntN(n)
}

// SeededPicker returns a deterministic picker derived from the artifact id and
// loop index, so re-running the same loop regenerates identical text.
func SeededPicker(artifactID string, loop int) Picker {
	h := fnv.New64a()
	h.Write([]byte(artifactID))
	return randPicker{r: rand.New(rand.NewPCG(h.Sum64(), uint64(loop)))}
}

// FixedPicker always picks the same index (clamped to the variant count).
// Intended for tests.
type FixedPicker int

func (p FixedPicker) Pick(n int) int {
	if int(p) >= n {
		return n - 1
	}
	return int(p)
}

func pick(p Picker, variants []string) string {
	return variants[p.Pick(len(variants))]
}
