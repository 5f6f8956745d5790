package combine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dep2p/go-reactive/internal/core/flow"
	"github.com/dep2p/go-reactive/internal/core/state"
	pkgif "github.com/dep2p/go-reactive/pkg/interfaces"
)

// chanFlow 从通道读取值，通道关闭时结束，收到错误时失败
func chanFlow[T any](values <-chan T, errs <-chan error) pkgif.Flow[T] {
	return flow.New(func(ctx context.Context, emit pkgif.Collector[T]) error {
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case err := <-errs:
				return err
			case v, ok := <-values:
				if !ok {
					return nil
				}
				if err := emit(v); err != nil {
					return err
				}
			}
		}
	})
}

func collectAsync[T any](ctx context.Context, f pkgif.Flow[T]) (<-chan T, <-chan error) {
	out := make(chan T, 16)
	errCh := make(chan error, 1)
	go func() {
		errCh <- f.Collect(ctx, func(v T) error {
			out <- v
			return nil
		})
	}()
	return out, errCh
}

func TestToList_EmptyInputEmitsOneEmptyList(t *testing.T) {
	got, err := flow.ToSlice(context.Background(), ToList[int](nil))

	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.NotNil(t, got[0])
	assert.Empty(t, got[0])
}

func TestToList_GateWaitsForEveryInput(t *testing.T) {
	a := make(chan int, 4)
	b := make(chan int, 4)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	out, _ := collectAsync(ctx, ToList([]pkgif.Flow[int]{chanFlow(a, nil), chanFlow(b, nil)}))

	a <- 1
	select {
	case v := <-out:
		t.Fatalf("emitted %v before every input produced a value", v)
	case <-time.After(30 * time.Millisecond):
	}

	b <- 2
	assert.Equal(t, []int{1, 2}, <-out)

	a <- 3
	assert.Equal(t, []int{3, 2}, <-out)
}

func TestToList_CompletesWithFinalSnapshot(t *testing.T) {
	got, err := flow.ToSlice(context.Background(), ToList([]pkgif.Flow[string]{
		flow.Of("a"),
		flow.Of("b"),
		flow.Of("c"),
	}))

	require.NoError(t, err)
	require.NotEmpty(t, got)
	assert.Equal(t, []string{"a", "b", "c"}, got[len(got)-1])
}

func TestToList_CoalescesUpdates(t *testing.T) {
	got, err := flow.ToSlice(context.Background(), ToList([]pkgif.Flow[int]{
		flow.Of(1, 2, 3, 4, 5),
		flow.Of(10),
	}))

	require.NoError(t, err)
	require.NotEmpty(t, got)
	assert.LessOrEqual(t, len(got), 5)
	assert.Equal(t, []int{5, 10}, got[len(got)-1])
	for _, snap := range got {
		assert.Len(t, snap, 2)
	}
}

func TestToList_GateNeverOpensCompletesEmpty(t *testing.T) {
	got, err := flow.ToSlice(context.Background(), ToList([]pkgif.Flow[int]{
		flow.Of(1),
		flow.Empty[int](),
	}))

	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestToList_InputFailurePropagates(t *testing.T) {
	boom := errors.New("boom")
	errs := make(chan error, 1)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	_, errCh := collectAsync(ctx, ToList([]pkgif.Flow[int]{
		flow.Never[int](),
		chanFlow(make(chan int), errs),
	}))

	errs <- boom
	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, boom)
	case <-time.After(time.Second):
		t.Fatal("failure not propagated")
	}
}

func TestToList_CollectorErrorCancelsInputs(t *testing.T) {
	stop := errors.New("stop")
	s := state.New(1)

	err := ToList([]pkgif.Flow[int]{s, flow.Of(2)}).Collect(context.Background(), func([]int) error {
		return stop
	})

	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 0, s.SubscriptionCount().Value())
}

func TestToList_SnapshotsAreIndependentCopies(t *testing.T) {
	a := state.New(1)
	b := state.New(2)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	out, _ := collectAsync(ctx, ToList([]pkgif.Flow[int]{a, b}))
	first := <-out
	assert.Equal(t, []int{1, 2}, first)

	a.SetValue(7)
	second := <-out
	assert.Equal(t, []int{7, 2}, second)
	assert.Equal(t, []int{1, 2}, first)
}

func TestToList_CancelReturnsContextError(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	_, errCh := collectAsync(ctx, ToList([]pkgif.Flow[int]{flow.Never[int]()}))

	cancel()
	assert.ErrorIs(t, <-errCh, context.Canceled)
}
