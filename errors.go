package reactive

import (
	"errors"

	"github.com/dep2p/go-reactive/internal/core/eventbus"
	"github.com/dep2p/go-reactive/internal/core/flow"
	"github.com/dep2p/go-reactive/internal/core/sharing"
)

// 公共错误定义
var (
	// ────────────────────────────────────────────────────────────────────────
	// 运行时生命周期错误
	// ────────────────────────────────────────────────────────────────────────

	// ErrNotStarted 运行时未启动
	ErrNotStarted = errors.New("runtime not started")

	// ErrAlreadyStarted 运行时已启动
	ErrAlreadyStarted = errors.New("runtime already started")

	// ErrRuntimeClosed 运行时已关闭
	ErrRuntimeClosed = errors.New("runtime closed")

	// ────────────────────────────────────────────────────────────────────────
	// 流相关错误
	// ────────────────────────────────────────────────────────────────────────

	// ErrEventFlowClosed 事件流已关闭
	ErrEventFlowClosed = eventbus.ErrClosed

	// ErrNoElements 流在产生任何值之前结束
	ErrNoElements = flow.ErrNoElements

	// ErrNoValue 共享任务在产生第一个值之前结束
	ErrNoValue = sharing.ErrNoValue
)
