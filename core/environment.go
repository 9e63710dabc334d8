package core

// Environment 环境接口
type Environment interface {
	Name() string
	IsDevelopment() bool
	IsProduction() bool
}

// environment 环境实现
type environment struct {
	name string
}

// NewEnvironment 创建环境
func NewEnvironment(name string) Environment {
	if name == "" {
		name = "development"
	}
	return &environment{name: name}
}

func (e *environment) Name() string {
	return e.name
}

func (e *environment) IsDevelopment() bool {
	return e.name == "development"
}

func (e *environment) IsProduction() bool {
	return e.name == "production"
}
