package cron

import (
	"fmt"

	"github.com/gocrud/gitplugin/logging"
	"github.com/robfig/cron/v3"
)

// cronLogger 适配器：将框架日志接口适配到 cron 的日志接口
type cronLogger struct {
	logger logging.Logger
}

func newCronLogger(logger logging.Logger) cron.Logger {
	return &cronLogger{logger: logger}
}

func (l *cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug(msg, convertToFields(keysAndValues)...)
}

func (l *cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	fields := convertToFields(keysAndValues)
	fields = append(fields, logging.Field{Key: "error", Value: err})
	l.logger.Error(msg, fields...)
}

func convertToFields(keysAndValues []interface{}) []logging.Field {
	fields := make([]logging.Field, 0, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		fields = append(fields, logging.Field{
			Key:   fmt.Sprintf("%v", keysAndValues[i]),
			Value: keysAndValues[i+1],
		})
	}
	return fields
}
