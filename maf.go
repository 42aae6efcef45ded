package its

import (
	"fmt"
)

type channelState struct {
	index  int
	n      int
	sum    float64
	values []float64
}

// MAF is a moving average filter, for smoothing per-channel image statistics
// over consecutive captures.
type MAF struct {
	state map[string]*channelState
}

// NewMAF returns a new moving average filter with a history of given size for
// the named channels.
func NewMAF(size int, channels []string) (*MAF, error) {
	if size <= 0 {
		return nil, fmt.Errorf("size must be > 0")
	}
	if len(channels) == 0 {
		return nil, fmt.Errorf("must specify at least one channel")
	}
	maf := &MAF{
		state: map[string]*channelState{},
	}
	for _, ch := range channels {
		maf.state[ch] = &channelState{values: make([]float64, size)}
	}
	return maf, nil
}

// Update adds one value per channel and returns the averages over the
// history. Until the history is full, only the values seen so far are
// averaged. All channels must be present.
func (m *MAF) Update(values map[string]float64) (map[string]float64, error) {
	if m.state == nil {
		return nil, fmt.Errorf("invalid MAF, use NewMAF")
	}
	if len(values) != len(m.state) {
		return nil, fmt.Errorf("got %d channels, expected %d", len(values), len(m.state))
	}
	for ch := range values {
		if _, ok := m.state[ch]; !ok {
			return nil, fmt.Errorf("unknown channel %q", ch)
		}
	}

	r := map[string]float64{}
	for ch, v := range values {
		cs := m.state[ch]
		cs.sum -= cs.values[cs.index]
		cs.sum += v
		cs.values[cs.index] = v
		cs.index = (cs.index + 1) % len(cs.values)
		if cs.n < len(cs.values) {
			cs.n++
		}
		r[ch] = cs.sum / float64(cs.n)
	}
	return r, nil
}
