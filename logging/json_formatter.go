package logging

import (
	"encoding/json"
	"fmt"
)

// JsonFormatter 每条日志输出一行 JSON
type JsonFormatter struct {
	TimestampFormat string
}

// NewJsonFormatter 创建 JSON 格式化器
func NewJsonFormatter() *JsonFormatter {
	return &JsonFormatter{
		TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
	}
}

type jsonLine struct {
	Time     string         `json:"time"`
	Level    string         `json:"level"`
	Category string         `json:"category,omitempty"`
	Message  string         `json:"msg"`
	Fields   map[string]any `json:"fields,omitempty"`
}

// Format 格式化日志。无法编码的字段值退化为 fmt 文本，不丢弃整行
func (f *JsonFormatter) Format(entry *LogEntry) ([]byte, error) {
	line := jsonLine{
		Time:     entry.Time.Format(f.TimestampFormat),
		Level:    entry.Level.String(),
		Category: entry.Category,
		Message:  entry.Message,
	}
	if len(entry.Fields) > 0 {
		line.Fields = make(map[string]any, len(entry.Fields))
		for _, field := range entry.Fields {
			v := fieldValue(field.Value)
			if _, err := json.Marshal(v); err != nil {
				v = fmt.Sprint(v)
			}
			line.Fields[field.Key] = v
		}
	}

	out, err := json.Marshal(line)
	if err != nil {
		return nil, err
	}
	return append(out, '\n'), nil
}
