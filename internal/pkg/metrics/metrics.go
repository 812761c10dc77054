package metrics

import "sync/atomic"

// Namespace 所有指标的统一前缀
const Namespace = "uglynos"

const defaultServiceName = "battle"

var serviceName atomic.Pointer[string]

// SetServiceName 设置 service 标签，空值恢复默认
func SetServiceName(name string) {
	if name == "" {
		name = defaultServiceName
	}
	serviceName.Store(&name)
}

// GetServiceName 当前 service 标签
func GetServiceName() string {
	if p := serviceName.Load(); p != nil {
		return *p
	}
	return defaultServiceName
}

func serviceOr(name string) string {
	if name == "" {
		return GetServiceName()
	}
	return name
}

func resultLabel(ok bool) string {
	if ok {
		return "success"
	}
	return "error"
}
