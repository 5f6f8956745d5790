// Package combine 把一组流合并为列表流
//
// ToList 并发收集所有输入，每个输入至少发出一个值之后才开始发出快照；
// 此后任一输入更新都会（合并后）发出一份按输入顺序排列的最新值列表。
package combine

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/dep2p/go-reactive/internal/core/flow"
	pkgif "github.com/dep2p/go-reactive/pkg/interfaces"
	"github.com/dep2p/go-reactive/pkg/lib/log"
)

var logger = log.Logger("core/combine")

// ToList 合并 flows 为列表流
//
// 语义：
//   - 没有输入：发出一个空列表后结束
//   - 闸门：所有输入都至少发出一个值之前不发出任何快照
//   - 合并：快照生成之前的多次更新只产生一次发射，发出的总是最新值
//   - 任一输入失败：合并流以该错误失败（第一个错误优先）
//   - 所有输入正常结束：补发未处理的更新后结束；闸门从未打开时直接结束
func ToList[T any](flows []pkgif.Flow[T]) pkgif.Flow[[]T] {
	inputs := make([]pkgif.Flow[T], len(flows))
	copy(inputs, flows)

	if len(inputs) == 0 {
		return flow.Of([]T{})
	}

	return flow.New(func(ctx context.Context, emit pkgif.Collector[[]T]) error {
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		c := newLatest[T](len(inputs))
		g, gctx := errgroup.WithContext(ctx)
		for i, in := range inputs {
			i, in := i, in
			g.Go(func() error {
				return in.Collect(gctx, func(v T) error {
					c.set(i, v)
					return nil
				})
			})
		}

		done := make(chan error, 1)
		go func() { done <- g.Wait() }()

		for {
			select {
			case <-c.dirty:
				if err := c.emitSnapshot(emit); err != nil {
					cancel()
					<-done
					return err
				}
			case err := <-done:
				if err != nil {
					return err
				}
				// 输入都已结束，补发最后一次更新
				select {
				case <-c.dirty:
					if err := c.emitSnapshot(emit); err != nil {
						return err
					}
				default:
				}
				if !c.ready() {
					logger.Debug("输入全部结束但闸门未打开", "inputs", len(inputs))
				}
				return nil
			}
		}
	})
}

// latest 保存每个输入的最新值
type latest[T any] struct {
	mu        sync.Mutex
	values    []T
	seen      []bool
	remaining int

	// dirty 容量为 1，多次更新合并为一次信号
	dirty chan struct{}
}

func newLatest[T any](n int) *latest[T] {
	return &latest[T]{
		values:    make([]T, n),
		seen:      make([]bool, n),
		remaining: n,
		dirty:     make(chan struct{}, 1),
	}
}

func (l *latest[T]) set(i int, v T) {
	l.mu.Lock()
	l.values[i] = v
	if !l.seen[i] {
		l.seen[i] = true
		l.remaining--
	}
	l.mu.Unlock()

	select {
	case l.dirty <- struct{}{}:
	default:
	}
}

func (l *latest[T]) ready() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.remaining == 0
}

// snapshot 闸门打开后返回按输入顺序的副本
func (l *latest[T]) snapshot() ([]T, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.remaining > 0 {
		return nil, false
	}
	out := make([]T, len(l.values))
	copy(out, l.values)
	return out, true
}

func (l *latest[T]) emitSnapshot(emit pkgif.Collector[[]T]) error {
	snap, ok := l.snapshot()
	if !ok {
		return nil
	}
	return emit(snap)
}
