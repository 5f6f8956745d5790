package timing

import (
	"context"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dep2p/go-reactive/internal/core/flow"
	"github.com/dep2p/go-reactive/internal/core/metrics"
	pkgif "github.com/dep2p/go-reactive/pkg/interfaces"
)

func TestMeasureTimeTillFirstEvent_RecordsElapsed(t *testing.T) {
	clk := clock.NewMock()
	reporter := metrics.NewFlowCounter()

	upstream := flow.New(func(ctx context.Context, emit pkgif.Collector[int]) error {
		clk.Add(250 * time.Millisecond)
		for i := 1; i <= 3; i++ {
			clk.Add(time.Second)
			if err := emit(i); err != nil {
				return err
			}
		}
		return nil
	})

	got, err := flow.ToSlice(context.Background(),
		MeasureTimeTillFirstEvent(upstream, "vault", WithClock(clk), WithReporter(reporter)))

	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, got)

	stats := reporter.StatsFor("vault")
	assert.Equal(t, int64(1), stats.FirstEvents)
	assert.Equal(t, 1250*time.Millisecond, stats.LastFirstEvent)
}

func TestMeasureTimeTillFirstEvent_EachCollectionMeasured(t *testing.T) {
	clk := clock.NewMock()
	reporter := metrics.NewFlowCounter()
	measured := MeasureTimeTillFirstEvent(flow.Of("a", "b"), "twice", WithClock(clk), WithReporter(reporter))

	for i := 0; i < 2; i++ {
		_, err := flow.ToSlice(context.Background(), measured)
		require.NoError(t, err)
	}

	assert.Equal(t, int64(2), reporter.StatsFor("twice").FirstEvents)
	assert.Equal(t, time.Duration(0), reporter.StatsFor("twice").LastFirstEvent)
}

func TestMeasureTimeTillFirstEvent_NoValueNoRecord(t *testing.T) {
	reporter := metrics.NewFlowCounter()

	_, err := flow.ToSlice(context.Background(),
		MeasureTimeTillFirstEvent(flow.Empty[int](), "empty", WithReporter(reporter)))

	require.NoError(t, err)
	assert.Equal(t, int64(0), reporter.StatsFor("empty").FirstEvents)
}

func TestMeasureTimeTillFirstEvent_PropagatesErrors(t *testing.T) {
	stop := assert.AnError

	err := MeasureTimeTillFirstEvent(flow.Of(1, 2), "err").Collect(context.Background(), func(int) error {
		return stop
	})

	assert.ErrorIs(t, err, stop)
}
