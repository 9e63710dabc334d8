package config

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	clientv3 "go.etcd.io/etcd/client/v3"
	"gopkg.in/yaml.v3"
)

// JsonFileSource JSON 文件配置源
type JsonFileSource struct {
	Path     string
	Optional bool
}

func (s *JsonFileSource) Name() string {
	return fmt.Sprintf("JsonFile(%s)", s.Path)
}

func (s *JsonFileSource) Load() (map[string]any, error) {
	data, err := readOptional(s.Path, s.Optional)
	if err != nil || data == nil {
		return make(map[string]any), err
	}

	var result map[string]any
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}
	return result, nil
}

// YamlFileSource YAML 文件配置源
type YamlFileSource struct {
	Path     string
	Optional bool
}

func (s *YamlFileSource) Name() string {
	return fmt.Sprintf("YamlFile(%s)", s.Path)
}

func (s *YamlFileSource) Load() (map[string]any, error) {
	data, err := readOptional(s.Path, s.Optional)
	if err != nil || data == nil {
		return make(map[string]any), err
	}

	var result map[string]any
	if err := yaml.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if result == nil {
		result = make(map[string]any)
	}
	return result, nil
}

func readOptional(path string, optional bool) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if optional && errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	return data, nil
}

// EnvironmentVariableSource 环境变量配置源。
// GITPLUGIN_LOG_LEVEL 在前缀 "GITPLUGIN_" 下展开为 log:level。
type EnvironmentVariableSource struct {
	Prefix string
}

func (s *EnvironmentVariableSource) Name() string {
	return fmt.Sprintf("EnvironmentVariables(%s)", s.Prefix)
}

func (s *EnvironmentVariableSource) Load() (map[string]any, error) {
	vars := make(map[string]string)
	for _, env := range os.Environ() {
		key, value, ok := strings.Cut(env, "=")
		if !ok {
			continue
		}
		vars[key] = value
	}
	return expandVariables(vars, s.Prefix), nil
}

// DotEnvSource .env 文件配置源
type DotEnvSource struct {
	Path     string
	Prefix   string
	Optional bool
}

func (s *DotEnvSource) Name() string {
	return fmt.Sprintf("DotEnv(%s)", s.Path)
}

func (s *DotEnvSource) Load() (map[string]any, error) {
	vars, err := godotenv.Read(s.Path)
	if err != nil {
		if s.Optional && errors.Is(err, os.ErrNotExist) {
			return make(map[string]any), nil
		}
		return nil, fmt.Errorf("failed to parse .env: %w", err)
	}
	return expandVariables(vars, s.Prefix), nil
}

// expandVariables 按前缀过滤变量，去掉前缀后转小写，"_" 作为层级分隔
func expandVariables(vars map[string]string, prefix string) map[string]any {
	result := make(map[string]any)
	for key, value := range vars {
		if prefix != "" {
			if !strings.HasPrefix(key, prefix) {
				continue
			}
			key = strings.TrimPrefix(key, prefix)
		}
		if key == "" {
			continue
		}
		key = strings.ReplaceAll(strings.ToLower(key), "_", ":")
		setNestedValue(result, key, value)
	}
	return result
}

// InMemorySource 内存配置源
type InMemorySource struct {
	Data map[string]any
}

func (s *InMemorySource) Name() string {
	return "InMemory"
}

func (s *InMemorySource) Load() (map[string]any, error) {
	result := make(map[string]any)
	mergeMaps(result, s.Data)
	return result, nil
}

// setNestedValue 设置嵌套值，字符串值尝试转换为整数、浮点数或布尔值
func setNestedValue(data map[string]any, path string, value any) {
	parts := strings.Split(path, ":")
	current := data

	for _, part := range parts[:len(parts)-1] {
		if _, exists := current[part]; !exists {
			current[part] = make(map[string]any)
		}
		m, ok := current[part].(map[string]any)
		if !ok {
			return
		}
		current = m
	}

	if strValue, ok := value.(string); ok {
		if intValue, err := strconv.Atoi(strValue); err == nil {
			value = intValue
		} else if floatValue, err := strconv.ParseFloat(strValue, 64); err == nil {
			value = floatValue
		} else if boolValue, err := strconv.ParseBool(strValue); err == nil {
			value = boolValue
		}
	}

	current[parts[len(parts)-1]] = value
}

// EtcdOptions etcd 配置选项
type EtcdOptions struct {
	Endpoints   []string      // etcd 服务器地址列表
	Username    string        // 用户名（可选）
	Password    string        // 密码（可选）
	Prefix      string        // 键前缀（可选）
	Timeout     time.Duration // 读取超时时间（默认 5 秒）
	DialTimeout time.Duration // 拨号超时时间（默认 5 秒）
}

// EtcdSource etcd 配置源，键中的 "/" 作为层级分隔
type EtcdSource struct {
	Options EtcdOptions
}

func (s *EtcdSource) Name() string {
	return fmt.Sprintf("Etcd(%v)", s.Options.Endpoints)
}

func (s *EtcdSource) Load() (map[string]any, error) {
	cli, err := clientv3.New(clientv3.Config{
		Endpoints:   s.Options.Endpoints,
		Username:    s.Options.Username,
		Password:    s.Options.Password,
		DialTimeout: s.Options.DialTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create etcd client: %w", err)
	}
	defer cli.Close()

	ctx, cancel := context.WithTimeout(context.Background(), s.Options.Timeout)
	defer cancel()

	prefix := s.Options.Prefix
	if prefix == "" {
		prefix = "/"
	}
	resp, err := cli.Get(ctx, prefix, clientv3.WithPrefix())
	if err != nil {
		return nil, fmt.Errorf("failed to get config from etcd: %w", err)
	}

	result := make(map[string]any)
	for _, kv := range resp.Kvs {
		key := etcdKey(s.Options.Prefix, string(kv.Key))
		if key == "" {
			continue
		}
		setNestedValue(result, key, decodeEtcdValue(string(kv.Value)))
	}
	return result, nil
}

// etcdKey 去掉前缀与开头的 "/"，把 "/" 换成 ":"
func etcdKey(prefix, key string) string {
	if prefix != "" {
		key = strings.TrimPrefix(key, prefix)
	}
	key = strings.TrimPrefix(key, "/")
	return strings.ReplaceAll(key, "/", ":")
}

// decodeEtcdValue 依次尝试 JSON、YAML，都失败时保留原字符串
func decodeEtcdValue(value string) any {
	var jsonValue any
	if err := json.Unmarshal([]byte(value), &jsonValue); err == nil {
		return jsonValue
	}
	var yamlValue any
	if err := yaml.Unmarshal([]byte(value), &yamlValue); err == nil {
		if _, ok := yamlValue.(map[string]any); ok {
			return yamlValue
		}
	}
	return value
}
