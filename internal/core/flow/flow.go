// Package flow 提供冷流构建器与基础操作符
package flow

import (
	"context"
	"errors"

	pkgif "github.com/dep2p/go-reactive/pkg/interfaces"
)

// ============================================================================
// 错误定义
// ============================================================================

var (
	// ErrNoElements 流在产生任何值之前结束
	ErrNoElements = errors.New("flow completed without elements")
)

// abortError 终止操作符用于提前结束上游
//
// 每次调用生成独立实例，避免嵌套操作符误判。
type abortError struct{}

func (*abortError) Error() string { return "flow aborted" }

// ============================================================================
// 构建器
// ============================================================================

// Func 函数形式的 Flow
type Func[T any] func(ctx context.Context, emit pkgif.Collector[T]) error

// Collect 实现 pkgif.Flow
//
// emit 在 ctx 取消后返回 ctx.Err()，保证取消后不再向下游投递。
func (f Func[T]) Collect(ctx context.Context, collector pkgif.Collector[T]) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return f(ctx, func(value T) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		return collector(value)
	})
}

// New 从函数创建 Flow
func New[T any](fn func(ctx context.Context, emit pkgif.Collector[T]) error) pkgif.Flow[T] {
	return Func[T](fn)
}

// Of 依次发出给定值后结束
func Of[T any](values ...T) pkgif.Flow[T] {
	return Func[T](func(_ context.Context, emit pkgif.Collector[T]) error {
		for _, v := range values {
			if err := emit(v); err != nil {
				return err
			}
		}
		return nil
	})
}

// Empty 立即结束的流
func Empty[T any]() pkgif.Flow[T] {
	return Func[T](func(context.Context, pkgif.Collector[T]) error {
		return nil
	})
}

// Never 永不发出、直到 ctx 取消才结束的流
func Never[T any]() pkgif.Flow[T] {
	return Func[T](func(ctx context.Context, _ pkgif.Collector[T]) error {
		<-ctx.Done()
		return ctx.Err()
	})
}

// Error 立即以 err 失败的流
func Error[T any](err error) pkgif.Flow[T] {
	return Func[T](func(context.Context, pkgif.Collector[T]) error {
		return err
	})
}

// ============================================================================
// 中间操作符
// ============================================================================

// Map 逐值转换
func Map[T, R any](upstream pkgif.Flow[T], transform func(T) R) pkgif.Flow[R] {
	return Func[R](func(ctx context.Context, emit pkgif.Collector[R]) error {
		return upstream.Collect(ctx, func(v T) error {
			return emit(transform(v))
		})
	})
}

// Filter 只保留满足条件的值
func Filter[T any](upstream pkgif.Flow[T], predicate func(T) bool) pkgif.Flow[T] {
	return Func[T](func(ctx context.Context, emit pkgif.Collector[T]) error {
		return upstream.Collect(ctx, func(v T) error {
			if !predicate(v) {
				return nil
			}
			return emit(v)
		})
	})
}

// DropWhile 丢弃开头满足条件的值，第一个不满足的值及其后所有值原样投递
func DropWhile[T any](upstream pkgif.Flow[T], predicate func(T) bool) pkgif.Flow[T] {
	return Func[T](func(ctx context.Context, emit pkgif.Collector[T]) error {
		dropping := true
		return upstream.Collect(ctx, func(v T) error {
			if dropping && predicate(v) {
				return nil
			}
			dropping = false
			return emit(v)
		})
	})
}

// OnEach 每个值先执行 action 再向下游投递
func OnEach[T any](upstream pkgif.Flow[T], action func(T)) pkgif.Flow[T] {
	return Func[T](func(ctx context.Context, emit pkgif.Collector[T]) error {
		return upstream.Collect(ctx, func(v T) error {
			action(v)
			return emit(v)
		})
	})
}

// Take 只取前 n 个值
func Take[T any](upstream pkgif.Flow[T], n int) pkgif.Flow[T] {
	return Func[T](func(ctx context.Context, emit pkgif.Collector[T]) error {
		if n <= 0 {
			return nil
		}
		abort := &abortError{}
		count := 0
		err := upstream.Collect(ctx, func(v T) error {
			count++
			if err := emit(v); err != nil {
				return err
			}
			if count >= n {
				return abort
			}
			return nil
		})
		if errors.Is(err, abort) {
			return nil
		}
		return err
	})
}

// DistinctUntilChanged 过滤与前一个值相等的连续值
func DistinctUntilChanged[T comparable](upstream pkgif.Flow[T]) pkgif.Flow[T] {
	return DistinctUntilChangedBy(upstream, func(a, b T) bool { return a == b })
}

// DistinctUntilChangedBy 使用自定义相等函数过滤连续重复值
func DistinctUntilChangedBy[T any](upstream pkgif.Flow[T], equal func(a, b T) bool) pkgif.Flow[T] {
	return Func[T](func(ctx context.Context, emit pkgif.Collector[T]) error {
		var (
			last T
			has  bool
		)
		return upstream.Collect(ctx, func(v T) error {
			if has && equal(last, v) {
				return nil
			}
			last, has = v, true
			return emit(v)
		})
	})
}

// ============================================================================
// 终止操作符
// ============================================================================

// First 返回第一个值，随后取消上游
func First[T any](ctx context.Context, upstream pkgif.Flow[T]) (T, error) {
	return FirstWhere(ctx, upstream, func(T) bool { return true })
}

// FirstWhere 返回第一个满足条件的值，随后取消上游
func FirstWhere[T any](ctx context.Context, upstream pkgif.Flow[T], predicate func(T) bool) (T, error) {
	var (
		result T
		found  bool
	)
	abort := &abortError{}
	err := upstream.Collect(ctx, func(v T) error {
		if !predicate(v) {
			return nil
		}
		result, found = v, true
		return abort
	})
	switch {
	case found:
		return result, nil
	case err != nil:
		return result, err
	default:
		return result, ErrNoElements
	}
}

// ToSlice 收集所有值直到上游结束
func ToSlice[T any](ctx context.Context, upstream pkgif.Flow[T]) ([]T, error) {
	var out []T
	err := upstream.Collect(ctx, func(v T) error {
		out = append(out, v)
		return nil
	})
	return out, err
}
