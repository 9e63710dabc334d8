package cron

import (
	"context"
	"reflect"
)

// Job 定时任务。每次触发都会通过注册表构造一个新的任务实例，
// 依赖由构造函数参数或注入方法提供。
type Job interface {
	Run(ctx context.Context) error
}

var jobInterface = reflect.TypeOf((*Job)(nil)).Elem()

// JobDefinition 任务定义
type JobDefinition struct {
	Spec string
	Name string
	Type reflect.Type
}
