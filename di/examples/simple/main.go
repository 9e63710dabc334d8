package main

import (
	"fmt"

	"github.com/gocrud/gitplugin/di"
	"github.com/gocrud/gitplugin/logging"
)

// 定义接口
type Greeter interface {
	Greet(name string) string
}

// 实现
type PrefixGreeter struct {
	Prefix string
}

func (g *PrefixGreeter) Greet(name string) string {
	return g.Prefix + ", " + name
}

// 服务：构造注入 + 字段注入 + 方法注入
type WelcomeService struct {
	greeter Greeter
	Logger  logging.Logger `di:""`
	Suffix  string         `di:"suffix,?"`
	ready   bool
}

func NewWelcomeService(greeter Greeter) *WelcomeService {
	return &WelcomeService{greeter: greeter}
}

func (s *WelcomeService) Init() {
	s.ready = true
}

func (s *WelcomeService) Welcome(name string) string {
	return s.greeter.Greet(name) + s.Suffix
}

func init() {
	di.Describe[*WelcomeService](
		di.Constructor(NewWelcomeService, "greeter"),
		di.Method("Init"),
	)
}

func main() {
	registry := di.NewRegistry(di.WithLogger(logging.NewLogger()))
	defer registry.Dispose()

	di.BindInstance[logging.Logger](registry, logging.NewLogger())
	di.BindInstance[Greeter](registry, &PrefixGreeter{Prefix: "Hello"})
	di.BindInstance(registry, "!").WithID("suffix")
	di.Bind[*WelcomeService](registry)

	// 方式1: 泛型 Resolve
	fmt.Println("=== 方式1: Resolve ===")
	svc := di.MustResolve[*WelcomeService](registry)
	fmt.Println(svc.Welcome("gopher"), "ready:", svc.ready)

	// 方式2: 同一单例
	fmt.Println("=== 方式2: 单例 ===")
	again := di.MustResolve[*WelcomeService](registry)
	fmt.Println("same instance:", svc == again)

	// 方式3: Instantiate 不经过绑定，每次新建
	fmt.Println("=== 方式3: Instantiate ===")
	fresh, err := di.Instantiate[*WelcomeService](registry)
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	fmt.Println("fresh instance:", fresh != svc)

	// 绑定快照
	for _, info := range registry.Bindings() {
		fmt.Printf("%s -> %s (%s)\n", info.Target, info.Implementation, info.Lifetime)
	}
}
