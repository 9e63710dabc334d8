package config

import (
	"sync/atomic"
)

// valueStore 使用 atomic.Value 保存配置树，读取无锁，Reload 时整体替换
type valueStore struct {
	value atomic.Value // map[string]any
}

func newValueStore(data map[string]any) *valueStore {
	s := &valueStore{}
	if data == nil {
		data = make(map[string]any)
	}
	s.value.Store(data)
	return s
}

func (s *valueStore) load() map[string]any {
	return s.value.Load().(map[string]any)
}

func (s *valueStore) store(data map[string]any) {
	s.value.Store(data)
}
