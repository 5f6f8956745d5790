// Package interfaces 定义 go-reactive 公共接口
//
// 本文件定义回调注册接口，用于把 register/unregister 模式转换为 Flow。
package interfaces

// Sink 注册方写入值的出口
type Sink[T any] interface {
	// Send 非阻塞写入；缓冲区已满或流已结束时返回 false
	Send(value T) bool

	// Close 结束流；err 为 nil 表示正常结束
	Close(err error)
}

// Registration 一次成功注册的句柄
type Registration interface {
	// Unregister 注销回调，由适配器保证只调用一次
	Unregister()
}

// Registrar 回调注册方
type Registrar[T any] interface {
	// Register 注册 sink；返回错误时不会调用 Unregister
	Register(sink Sink[T]) (Registration, error)
}
