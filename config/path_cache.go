package config

import (
	"strings"
	"sync"
)

// pathCache 缓存配置路径的分段结果
type pathCache struct {
	cache sync.Map
}

// segments 支持 ":" 与 "." 作为分隔符
func (c *pathCache) segments(path string) []string {
	if v, ok := c.cache.Load(path); ok {
		return v.([]string)
	}
	parts := strings.Split(strings.ReplaceAll(path, ":", "."), ".")
	c.cache.Store(path, parts)
	return parts
}

var paths = &pathCache{}
