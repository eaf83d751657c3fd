package di

import "fmt"

// Scope 定义绑定实例的生命周期策略。
type Scope int

const (
	// ScopeShared 每个容器创建一次实例，首次解析时延迟构造（默认）。
	ScopeShared Scope = iota
	// ScopeUnique 每次解析都创建新实例，不缓存。
	ScopeUnique
	// ScopeExternal 包装调用方提供的实例，容器既不构造也不释放它。
	ScopeExternal
	// ScopeSharedCyclical 允许循环依赖的共享实例：先预留槽位，再延迟构造。
	ScopeSharedCyclical
)

func (s Scope) String() string {
	switch s {
	case ScopeShared:
		return "shared"
	case ScopeUnique:
		return "unique"
	case ScopeExternal:
		return "external"
	case ScopeSharedCyclical:
		return "shared-cyclical"
	default:
		return fmt.Sprintf("Scope(%d)", int(s))
	}
}

// ParseScope 解析配置中的作用域名称
func ParseScope(name string) (Scope, error) {
	switch name {
	case "shared", "singleton", "":
		return ScopeShared, nil
	case "unique", "transient":
		return ScopeUnique, nil
	case "external":
		return ScopeExternal, nil
	case "shared-cyclical", "cyclical":
		return ScopeSharedCyclical, nil
	}
	return 0, fmt.Errorf("di: unknown scope %q", name)
}

// Storage 描述实例在容器中的保存形态。
type Storage int

const (
	// StoreValue 直接保存实例
	StoreValue Storage = iota
	// StoreHandle 保存为引用计数的句柄，可以共享所有权
	StoreHandle
)

func (s Storage) String() string {
	if s == StoreHandle {
		return "handle"
	}
	return "value"
}
