package flow

import (
	"context"
	"sync"

	pkgif "github.com/dep2p/go-reactive/pkg/interfaces"
)

// CollectLatest 收集上游，每个新值取消上一个 block 后再启动新的 block
//
// 返回值：
//   - block 以非取消原因失败：返回该错误
//   - 上游失败或 ctx 取消：返回对应错误
//   - 上游结束：等待最后一个 block 结束并返回其结果
//
// 同一时刻至多一个 block 在运行。
func CollectLatest[T any](ctx context.Context, upstream pkgif.Flow[T], block func(ctx context.Context, value T) error) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		blockErr  error
		blockOnce sync.Once

		prevCancel context.CancelFunc
		prevDone   chan struct{}
	)

	fail := func(err error) {
		blockOnce.Do(func() {
			blockErr = err
			cancel()
		})
	}

	stopPrev := func() {
		if prevCancel == nil {
			return
		}
		prevCancel()
		<-prevDone
		prevCancel, prevDone = nil, nil
	}

	err := upstream.Collect(ctx, func(v T) error {
		stopPrev()
		if err := ctx.Err(); err != nil {
			return err
		}

		childCtx, childCancel := context.WithCancel(ctx)
		done := make(chan struct{})
		prevCancel, prevDone = childCancel, done

		go func() {
			defer close(done)
			if err := block(childCtx, v); err != nil && childCtx.Err() == nil {
				fail(err)
			}
		}()
		return nil
	})

	// 上游正常结束：最后一个 block 自然运行至结束
	if err == nil && prevDone != nil {
		select {
		case <-prevDone:
		case <-ctx.Done():
		}
	}
	stopPrev()

	blockOnce.Do(func() {})
	if blockErr != nil {
		return blockErr
	}
	if err != nil {
		return err
	}
	return ctx.Err()
}

// FlatMapLatest 把每个值映射为内层流，新值到达时取消上一个内层流
func FlatMapLatest[T, R any](upstream pkgif.Flow[T], transform func(T) pkgif.Flow[R]) pkgif.Flow[R] {
	return Func[R](func(ctx context.Context, emit pkgif.Collector[R]) error {
		return CollectLatest(ctx, upstream, func(inner context.Context, v T) error {
			return transform(v).Collect(inner, emit)
		})
	})
}

// MapLatestScoped 为每个值在独立的子 ctx 中执行 block
//
// block 的结果被发出后，子 ctx 保持存活直到下一个上游值到达（或整个收集结束），
// 因此 block 可以在该 ctx 上启动与结果生命周期一致的后台工作。
func MapLatestScoped[T, R any](upstream pkgif.Flow[T], block func(ctx context.Context, value T) (R, error)) pkgif.Flow[R] {
	return FlatMapLatest(upstream, func(v T) pkgif.Flow[R] {
		return Func[R](func(ctx context.Context, emit pkgif.Collector[R]) error {
			result, err := block(ctx, v)
			if err != nil {
				return err
			}
			if err := emit(result); err != nil {
				return err
			}
			<-ctx.Done()
			return ctx.Err()
		})
	})
}
