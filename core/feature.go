package core

import (
	"reflect"
	"sync"
)

// FeatureCollection 是一个类型安全的特性集合
// 多个 Option 通过它累加同一模块的构建时配置（例如定时任务列表）
type FeatureCollection struct {
	features sync.Map
}

// Set 注册一个特性
func (fc *FeatureCollection) Set(feature any) {
	fc.features.Store(reflect.TypeOf(feature), feature)
}

// Get 获取一个特性
func (fc *FeatureCollection) Get(typ reflect.Type) (any, bool) {
	return fc.features.Load(typ)
}

// GetFeature 从 Runtime 获取特性，不存在时返回零值
func GetFeature[T any](rt *Runtime) T {
	var zero T
	if val, ok := rt.Features.Get(reflect.TypeOf((*T)(nil)).Elem()); ok {
		return val.(T)
	}
	return zero
}

// EnsureFeature 获取特性，不存在时用 create 创建并登记。
// created 为 true 表示本次新建，调用方据此只做一次绑定。
func EnsureFeature[T any](rt *Runtime, create func() T) (feature T, created bool) {
	typ := reflect.TypeOf((*T)(nil)).Elem()
	if val, ok := rt.Features.Get(typ); ok {
		return val.(T), false
	}
	feature = create()
	actual, loaded := rt.Features.features.LoadOrStore(typ, feature)
	return actual.(T), !loaded
}
