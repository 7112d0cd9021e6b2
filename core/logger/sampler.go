package logger

import (
	"strconv"
	"strings"
	"sync/atomic"
)

// sampler lets through num of every den calls. A zero ratio lets everything through.
type sampler struct {
	ratio atomic.Uint64 // num<<32 | den
	n     atomic.Uint64
}

func (s *sampler) set(num, den int) {
	if num <= 0 || den <= 0 {
		s.ratio.Store(0)
		return
	}
	num = min(num, den)
	s.ratio.Store(uint64(num)<<32 | uint64(den))
}

func (s *sampler) allow() bool {
	r := s.ratio.Load()
	if r == 0 {
		return true
	}
	num, den := r>>32, r&0xffffffff
	return (s.n.Add(1)-1)%den < num
}

// parseRatio accepts "n/d" or "d" (meaning 1/d). Unparsable input yields 0, 0.
func parseRatio(raw string) (int, int) {
	raw = strings.TrimSpace(raw)
	if a, b, ok := strings.Cut(raw, "/"); ok {
		num, err1 := strconv.Atoi(strings.TrimSpace(a))
		den, err2 := strconv.Atoi(strings.TrimSpace(b))
		if err1 != nil || err2 != nil {
			return 0, 0
		}
		return num, den
	}
	if den, err := strconv.Atoi(raw); err == nil && den > 0 {
		return 1, den
	}
	return 0, 0
}
