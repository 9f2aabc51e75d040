package checkout_test

import (
	"context"
	"errors"
	"testing"

	"github.com/fruteira-pos/terminal/internal/checkout"
	"github.com/fruteira-pos/terminal/internal/enum"
	"github.com/fruteira-pos/terminal/internal/sale"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestFinalize_Telemetry(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	otel.SetTracerProvider(tp)
	otel.SetMeterProvider(mp)
	t.Cleanup(func() {
		_ = tp.Shutdown(context.Background())
		_ = mp.Shutdown(context.Background())
	})

	attempts := 0
	ledger := &mockLedger{submitFn: func(context.Context, sale.Transaction) (checkout.Ack, error) {
		attempts++
		if attempts == 1 {
			return checkout.Ack{}, errors.New("timeout")
		}
		return checkout.Ack{ID: "v-2"}, nil
	}}
	w := newWorkflow(t, ledger, nil, nil)

	_, err := w.AddLine(apple(), dec("1.5"))
	require.NoError(t, err)
	_, err = w.SetPayment(enum.PaymentMethodPix, "3.00", 1)
	require.NoError(t, err)

	_, err = w.Finalize(t.Context(), uuid.New(), false)
	require.Error(t, err)
	_, err = w.Finalize(t.Context(), uuid.New(), false)
	require.NoError(t, err)

	var finalize []sdktrace.ReadOnlySpan
	for _, s := range recorder.Ended() {
		if s.Name() == "checkout.Finalize" {
			finalize = append(finalize, s)
		}
	}
	require.Len(t, finalize, 2)
	assert.Equal(t, codes.Error, finalize[0].Status().Code)
	assert.NotEqual(t, codes.Error, finalize[1].Status().Code)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(t.Context(), &rm))
	sums := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if s, ok := m.Data.(metricdata.Sum[int64]); ok {
				for _, dp := range s.DataPoints {
					sums[m.Name] += dp.Value
				}
			}
		}
	}
	assert.Equal(t, int64(1), sums["pos.sales.failed"])
	assert.Equal(t, int64(1), sums["pos.sales.completed"])
}
