package logging

import (
	"encoding/json"
	"time"
)

// Formatter 日志格式化接口
type Formatter interface {
	// Format 格式化日志条目，返回以换行结尾的一行
	Format(entry *LogEntry) ([]byte, error)
}

// LogEntry 日志条目
type LogEntry struct {
	Time     time.Time `json:"time"`
	Level    LogLevel  `json:"level"`
	Category string    `json:"category,omitempty"`
	Message  string    `json:"message"`
	Fields   []Field   `json:"fields,omitempty"`
}

// fieldValue error 类型的值按字符串输出
func fieldValue(v any) any {
	if err, ok := v.(error); ok && err != nil {
		return err.Error()
	}
	return v
}

// MarshalJSON error 类型的值按字符串输出
func (f Field) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Key   string `json:"key"`
		Value any    `json:"value"`
	}{Key: f.Key, Value: fieldValue(f.Value)})
}
