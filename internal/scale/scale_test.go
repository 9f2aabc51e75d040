package scale_test

import (
	"context"
	"testing"

	"github.com/fruteira-pos/terminal/internal/enum"
	"github.com/fruteira-pos/terminal/internal/scale"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimulated_ReadsPositiveWeights(t *testing.T) {
	r := scale.NewSimulated(7)
	max := decimal.NewFromFloat(scale.MaxSimulatedKg)

	for i := 0; i < 200; i++ {
		w, err := r.Read(t.Context())
		require.NoError(t, err)
		assert.True(t, w.IsPositive(), "weight %s", w)
		assert.True(t, w.LessThanOrEqual(max), "weight %s", w)
		assert.LessOrEqual(t, -w.Exponent(), int32(3), "weight %s has more than 3 decimals", w)
	}
}

func TestSimulated_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	_, err := scale.NewSimulated(1).Read(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestNone_Read(t *testing.T) {
	_, err := scale.None{}.Read(t.Context())
	require.ErrorIs(t, err, scale.ErrNoScale)
}

func TestNew(t *testing.T) {
	r, err := scale.New(enum.ScaleModeSimulated)
	require.NoError(t, err)
	assert.IsType(t, &scale.Simulated{}, r)

	r, err = scale.New(enum.ScaleModeNone)
	require.NoError(t, err)
	assert.IsType(t, scale.None{}, r)

	_, err = scale.New("serial")
	require.Error(t, err)
}
