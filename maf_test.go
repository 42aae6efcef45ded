package its_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	its "github.com/camerasuite/its-go"
)

func TestMAF(t *testing.T) {
	m0 := &its.MAF{}
	_, err := m0.Update(map[string]float64{"r": 1.5})
	assert.Error(t, err, "MAF created without NewMAF")

	_, err = its.NewMAF(0, []string{"r"})
	assert.Error(t, err)
	_, err = its.NewMAF(3, nil)
	assert.Error(t, err)

	m, err := its.NewMAF(3, []string{"r", "g"})
	require.NoError(t, err)

	steps := []struct {
		in  map[string]float64
		exp map[string]float64
	}{
		{map[string]float64{"r": 3, "g": 6}, map[string]float64{"r": 3, "g": 6}},
		{map[string]float64{"r": 1, "g": 0}, map[string]float64{"r": 2, "g": 3}},
		{map[string]float64{"r": 2, "g": 3}, map[string]float64{"r": 2, "g": 3}},
		// First values drop out of the history.
		{map[string]float64{"r": 6, "g": 0}, map[string]float64{"r": 3, "g": 1}},
	}
	for i, s := range steps {
		r, err := m.Update(s.in)
		require.NoError(t, err, "step %d", i)
		assert.InDeltaMapValues(t, s.exp, r, 1e-9, "step %d", i)
	}

	_, err = m.Update(nil)
	assert.Error(t, err, "empty update")
	_, err = m.Update(map[string]float64{"r": 1})
	assert.Error(t, err, "missing channel")
	_, err = m.Update(map[string]float64{"r": 1, "b": 2})
	assert.Error(t, err, "unknown channel")
}
