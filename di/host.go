package di

import "reflect"

// HostObjectFactory 宿主对象工厂。
// 宿主框架自己管理的对象（窗口部件等）不能直接 reflect.New，
// 注册表在构造这类类型时改为调用工厂，然后对返回的实例执行成员注入。
type HostObjectFactory interface {
	CanConstruct(t reflect.Type) bool
	Construct(t reflect.Type) (any, error)
}
