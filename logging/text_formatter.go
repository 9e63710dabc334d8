package logging

import (
	"fmt"
	"strings"
)

// TextFormatter 文本格式化器
type TextFormatter struct {
	IncludeTimestamp bool
	TimestampFormat  string
	ColorOutput      bool
}

// NewTextFormatter 创建文本格式化器
func NewTextFormatter() *TextFormatter {
	return &TextFormatter{
		IncludeTimestamp: true,
		TimestampFormat:  "2006-01-02 15:04:05",
		ColorOutput:      false,
	}
}

// Format 格式化日志
func (f *TextFormatter) Format(entry *LogEntry) ([]byte, error) {
	var sb strings.Builder

	if f.IncludeTimestamp {
		sb.WriteString(entry.Time.Format(f.TimestampFormat))
		sb.WriteByte(' ')
	}

	levelStr := entry.Level.String()
	if f.ColorOutput {
		sb.WriteString(colorize(entry.Level, levelStr))
	} else {
		sb.WriteString(levelStr)
	}

	if entry.Category != "" {
		sb.WriteString(" [")
		sb.WriteString(entry.Category)
		sb.WriteString("]")
	}

	sb.WriteByte(' ')
	sb.WriteString(entry.Message)

	if len(entry.Fields) > 0 {
		sb.WriteString(" {")
		for i, field := range entry.Fields {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(field.Key)
			sb.WriteByte('=')
			fmt.Fprintf(&sb, "%v", fieldValue(field.Value))
		}
		sb.WriteByte('}')
	}

	sb.WriteByte('\n')
	return []byte(sb.String()), nil
}
