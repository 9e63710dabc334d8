package config

import (
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"
)

// Configuration 配置接口
type Configuration interface {
	// Get 获取配置值
	Get(key string) string
	// GetWithDefault 获取配置值，如果不存在则返回默认值
	GetWithDefault(key, defaultValue string) string
	// GetInt 获取整数配置值
	GetInt(key string) (int, error)
	// GetBool 获取布尔配置值
	GetBool(key string) (bool, error)
	// GetSection 获取配置节
	GetSection(key string) Configuration
	// Bind 绑定配置到结构体
	Bind(key string, target any) error
	// GetAll 获取所有配置
	GetAll() map[string]any
}

// ConfigurationSource 配置源接口
type ConfigurationSource interface {
	Load() (map[string]any, error)
	Name() string
}

// ConfigurationBuilder 配置构建器
type ConfigurationBuilder struct {
	sources []ConfigurationSource
	mu      sync.RWMutex
}

// NewConfigurationBuilder 创建配置构建器
func NewConfigurationBuilder() *ConfigurationBuilder {
	return &ConfigurationBuilder{
		sources: make([]ConfigurationSource, 0),
	}
}

// Add 添加配置源
func (b *ConfigurationBuilder) Add(source ConfigurationSource) *ConfigurationBuilder {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sources = append(b.sources, source)
	return b
}

// AddJsonFile 添加 JSON 文件配置源
func (b *ConfigurationBuilder) AddJsonFile(path string, optional ...bool) *ConfigurationBuilder {
	isOptional := len(optional) > 0 && optional[0]
	return b.Add(&JsonFileSource{Path: path, Optional: isOptional})
}

// AddYamlFile 添加 YAML 文件配置源
func (b *ConfigurationBuilder) AddYamlFile(path string, optional ...bool) *ConfigurationBuilder {
	isOptional := len(optional) > 0 && optional[0]
	return b.Add(&YamlFileSource{Path: path, Optional: isOptional})
}

// AddDotEnv 添加 .env 文件配置源，键的展开规则与环境变量相同
func (b *ConfigurationBuilder) AddDotEnv(path, prefix string, optional ...bool) *ConfigurationBuilder {
	isOptional := len(optional) > 0 && optional[0]
	return b.Add(&DotEnvSource{Path: path, Prefix: prefix, Optional: isOptional})
}

// AddEnvironmentVariables 添加环境变量配置源
func (b *ConfigurationBuilder) AddEnvironmentVariables(prefix string) *ConfigurationBuilder {
	return b.Add(&EnvironmentVariableSource{Prefix: prefix})
}

// AddInMemory 添加内存配置源
func (b *ConfigurationBuilder) AddInMemory(data map[string]any) *ConfigurationBuilder {
	return b.Add(&InMemorySource{Data: data})
}

// AddEtcd 添加 etcd 配置源
func (b *ConfigurationBuilder) AddEtcd(opts EtcdOptions) *ConfigurationBuilder {
	if opts.Timeout == 0 {
		opts.Timeout = 5 * time.Second
	}
	if opts.DialTimeout == 0 {
		opts.DialTimeout = 5 * time.Second
	}
	return b.Add(&EtcdSource{Options: opts})
}

// Build 构建配置，后添加的配置源覆盖先添加的
func (b *ConfigurationBuilder) Build() (*ReloadableConfiguration, error) {
	b.mu.RLock()
	sources := append([]ConfigurationSource(nil), b.sources...)
	b.mu.RUnlock()

	data, err := loadSources(sources)
	if err != nil {
		return nil, err
	}
	return &ReloadableConfiguration{
		configuration: configuration{store: newValueStore(data)},
		sources:       sources,
	}, nil
}

func loadSources(sources []ConfigurationSource) (map[string]any, error) {
	data := make(map[string]any)
	for _, source := range sources {
		loaded, err := source.Load()
		if err != nil {
			return nil, fmt.Errorf("failed to load config source %s: %w", source.Name(), err)
		}
		mergeMaps(data, loaded)
	}
	return data, nil
}

// ReloadableConfiguration 可以从原配置源重新加载的配置
type ReloadableConfiguration struct {
	configuration

	sources  []ConfigurationSource
	mu       sync.Mutex
	onReload []func()
}

// Reload 重新读取所有配置源并原子替换配置树。
// 任一配置源失败时保留旧配置。
func (c *ReloadableConfiguration) Reload() error {
	data, err := loadSources(c.sources)
	if err != nil {
		return err
	}
	c.store.store(data)

	c.mu.Lock()
	callbacks := append([]func(){}, c.onReload...)
	c.mu.Unlock()
	for _, fn := range callbacks {
		fn()
	}
	return nil
}

// OnReload 注册重载回调
func (c *ReloadableConfiguration) OnReload(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onReload = append(c.onReload, fn)
}

// configuration 配置实现
type configuration struct {
	store *valueStore
}

// Get 获取配置值
func (c *configuration) Get(key string) string {
	value := c.getByPath(key)
	if value == nil {
		return ""
	}

	switch v := value.(type) {
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// GetWithDefault 获取配置值，如果不存在则返回默认值
func (c *configuration) GetWithDefault(key, defaultValue string) string {
	value := c.Get(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// GetInt 获取整数配置值
func (c *configuration) GetInt(key string) (int, error) {
	value := c.getByPath(key)
	if value == nil {
		return 0, fmt.Errorf("key %s not found", key)
	}

	switch v := value.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		return int(v), nil
	case string:
		return strconv.Atoi(v)
	default:
		return 0, fmt.Errorf("cannot convert %v to int", value)
	}
}

// GetBool 获取布尔配置值
func (c *configuration) GetBool(key string) (bool, error) {
	value := c.getByPath(key)
	if value == nil {
		return false, fmt.Errorf("key %s not found", key)
	}

	switch v := value.(type) {
	case bool:
		return v, nil
	case string:
		return strconv.ParseBool(v)
	default:
		return false, fmt.Errorf("cannot convert %v to bool", value)
	}
}

// GetSection 获取配置节，不存在时返回空配置
func (c *configuration) GetSection(key string) Configuration {
	if m, ok := c.getByPath(key).(map[string]any); ok {
		return &configuration{store: newValueStore(m)}
	}
	return &configuration{store: newValueStore(nil)}
}

// Bind 绑定配置到结构体
func (c *configuration) Bind(key string, target any) error {
	data := c.getByPath(key)
	if data == nil {
		return fmt.Errorf("key %s not found", key)
	}

	// 使用 JSON 序列化/反序列化进行绑定
	jsonData, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal data: %w", err)
	}
	if err := json.Unmarshal(jsonData, target); err != nil {
		return fmt.Errorf("failed to unmarshal data: %w", err)
	}
	return nil
}

// GetAll 获取所有配置（副本）
func (c *configuration) GetAll() map[string]any {
	result := make(map[string]any)
	mergeMaps(result, c.store.load())
	return result
}

// getByPath 通过路径获取值（支持 "a:b:c" 或 "a.b.c"）
func (c *configuration) getByPath(path string) any {
	if path == "" {
		return c.store.load()
	}

	current := any(c.store.load())
	for _, part := range paths.segments(path) {
		m, ok := current.(map[string]any)
		if !ok {
			return nil
		}
		current = m[part]
	}
	return current
}

// mergeMaps 深度合并，src 覆盖 dst
func mergeMaps(dst, src map[string]any) {
	for k, v := range src {
		if srcMap, ok := v.(map[string]any); ok {
			dstMap, ok := dst[k].(map[string]any)
			if !ok {
				dstMap = make(map[string]any)
				dst[k] = dstMap
			}
			mergeMaps(dstMap, srcMap)
			continue
		}
		dst[k] = v
	}
}
