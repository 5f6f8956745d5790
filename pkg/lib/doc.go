// Package lib 包含基础设施工具库
//
// 本目录包含与流组件无关的通用工具库：
//
//   - log: 按组件区分的日志封装
//
// # 与 pkg/ 其他目录的关系
//
//   - interfaces/: 流、执行上下文与共享策略的公共接口
//   - lib/: 基础设施工具库（本目录）
//
// # 使用示例
//
//	import "github.com/dep2p/go-reactive/pkg/lib/log"
//
//	var logger = log.Logger("core/eventbus")
package lib
