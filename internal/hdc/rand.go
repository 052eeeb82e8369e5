package hdc

import "hash/fnv"

// splitmix is a small deterministic generator used to derive atom vectors.
// Vector content must be a pure function of (strategy, geometry, seed, id),
// so the generator is always constructed from a hashed seed and never shared.
type splitmix struct {
	state uint64
}

func (s *splitmix) next() uint64 {
	s.state += 0x9e3779b97f4a7c15
	z := s.state
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}

// nextBelow returns a value in [0, n) without modulo bias worth worrying
// about at the moduli used here.
func (s *splitmix) nextBelow(n uint64) uint64 {
	return s.next() % n
}

// seedFor hashes the identifying parts of a vector into a generator seed.
func seedFor(strategy string, geometry int, seed uint64, id string) *splitmix {
	h := fnv.New64a()
	_, _ = h.Write([]byte(strategy))
	_, _ = h.Write([]byte{byte(geometry), byte(geometry >> 8), byte(geometry >> 16), byte(geometry >> 24)})
	_, _ = h.Write([]byte{byte(seed), byte(seed >> 8), byte(seed >> 16), byte(seed >> 24),
		byte(seed >> 32), byte(seed >> 40), byte(seed >> 48), byte(seed >> 56)})
	_, _ = h.Write([]byte(id))
	return &splitmix{state: h.Sum64()}
}
