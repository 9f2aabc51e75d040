package scale

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/fruteira-pos/terminal/internal/enum"
	"github.com/shopspring/decimal"
)

// ErrNoScale is returned when no scale is connected.
var ErrNoScale = errors.New("no scale connected")

// MaxSimulatedKg is the upper bound of Simulated readings.
const MaxSimulatedKg = 5.0

// Reader reads the current weight in kilograms. A successful reading is
// always positive.
type Reader interface {
	Read(ctx context.Context) (decimal.Decimal, error)
}

// New returns the Reader for a SCALE_MODE value.
func New(mode string) (Reader, error) {
	switch mode {
	case enum.ScaleModeSimulated:
		return NewSimulated(0), nil
	case enum.ScaleModeNone, "":
		return None{}, nil
	}
	return nil, fmt.Errorf("unknown scale mode %q", mode)
}

// None is the Reader used when the terminal has no scale.
type None struct{}

func (None) Read(ctx context.Context) (decimal.Decimal, error) {
	return decimal.Zero, ErrNoScale
}

// Simulated produces random weights in (0, MaxSimulatedKg] with gram
// resolution. A seed of 0 picks a random seed.
type Simulated struct {
	mu    sync.Mutex
	faker *gofakeit.Faker
}

func NewSimulated(seed uint64) *Simulated {
	return &Simulated{faker: gofakeit.New(seed)}
}

func (s *Simulated) Read(ctx context.Context) (decimal.Decimal, error) {
	if err := ctx.Err(); err != nil {
		return decimal.Zero, err
	}

	s.mu.Lock()
	raw := s.faker.Float64Range(0, MaxSimulatedKg)
	s.mu.Unlock()

	w := decimal.NewFromFloat(raw).Round(3)
	if !w.IsPositive() {
		w = decimal.New(1, -3)
	}
	return w, nil
}
