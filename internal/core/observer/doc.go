// Package observer 把回调注册转换为 Flow
//
// 许多 API 以 register/unregister 的形式推送数据。本包把这种形式包装为
// 冷流：收集时注册，结束时注销。
//
//	locations := observer.FromFunc(func(sink pkgif.Sink[Location]) (pkgif.Registration, error) {
//	    id, err := gps.Register(func(l Location) { sink.Send(l) })
//	    if err != nil {
//	        return nil, err
//	    }
//	    return observer.RegistrationFunc(func() { gps.Unregister(id) }), nil
//	}, observer.WithDispatcher(main))
//
// # 保证
//
//   - register 与 unregister 都在配置的执行上下文中执行
//   - 注册成功后恰好注销一次，与结束原因无关（取消、收集错误、sink.Close）
//   - 注销不可取消：外层 ctx 已取消时仍会在执行上下文中执行完毕
//   - 注册失败时流以该错误结束，不会注销
//   - Send 永不阻塞，缓冲区已满时丢弃并计入指标
package observer
