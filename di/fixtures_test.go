package di_test

import (
	"errors"
	"reflect"
	"time"

	"github.com/gocrud/gitplugin/di"
	"github.com/gocrud/gitplugin/logging"
)

type Logger interface {
	Log(msg string)
}

type ConsoleLogger struct {
	lines []string
}

func (l *ConsoleLogger) Log(msg string) { l.lines = append(l.lines, msg) }

type PrefixLogger struct {
	Prefix string
}

func (l *PrefixLogger) Log(msg string) {}

type Clock interface {
	Now() time.Time
}

type fixedClock struct {
	at time.Time
}

func (c *fixedClock) Now() time.Time { return c.at }

type Service struct {
	Logger Logger
	Clock  Clock
}

func NewService(logger Logger, clock Clock) *Service {
	return &Service{Logger: logger, Clock: clock}
}

type ConsumerA struct{ Logger Logger }

func NewConsumerA(logger Logger) *ConsumerA { return &ConsumerA{Logger: logger} }

type ConsumerB struct{ Logger Logger }

func NewConsumerB(logger Logger) *ConsumerB { return &ConsumerB{Logger: logger} }

type Reporter struct {
	Primary Logger
	Backup  Logger
}

func NewReporter(primary, backup Logger) *Reporter {
	return &Reporter{Primary: primary, Backup: backup}
}

type CycleA struct{ B *CycleB }
type CycleB struct{ A *CycleA }

func NewCycleA(b *CycleB) *CycleA { return &CycleA{B: b} }
func NewCycleB(a *CycleA) *CycleB { return &CycleB{A: a} }

type Plugin interface {
	Name() string
}

type gitPlugin struct{}
type lintPlugin struct{}
type testPlugin struct{}

func (gitPlugin) Name() string  { return "git" }
func (lintPlugin) Name() string { return "lint" }
func (testPlugin) Name() string { return "test" }

type PluginHost struct {
	Plugins []Plugin
}

func NewPluginHost(plugins []Plugin) *PluginHost {
	return &PluginHost{Plugins: plugins}
}

type Resource struct {
	disposed int
}

func (r *Resource) Dispose() { r.disposed++ }

type Releasable interface {
	Dispose()
}

type closingResource struct {
	closed int
	err    error
}

func (r *closingResource) Close() error {
	r.closed++
	return r.err
}

type baseWidget struct {
	Clock Clock `di:""`
	calls []string
}

func (w *baseWidget) Init(clock Clock) {
	w.calls = append(w.calls, "base.Init")
}

func (w *baseWidget) Attach(logger Logger) {
	w.calls = append(w.calls, "base.Attach")
}

type derivedWidget struct {
	baseWidget
	Logger Logger `di:",?"`
}

func (w *derivedWidget) Attach(logger Logger) {
	w.calls = append(w.calls, "derived.Attach")
}

func (w *derivedWidget) Ready() {
	w.calls = append(w.calls, "derived.Ready")
}

type fragile struct {
	calls []string
}

func (f *fragile) First() error {
	f.calls = append(f.calls, "first")
	return errors.New("boom")
}

func (f *fragile) Second() {
	f.calls = append(f.calls, "second")
}

type panicky struct {
	calls []string
}

func (p *panicky) Setup() {
	p.calls = append(p.calls, "setup")
	panic("setup exploded")
}

type Greeter struct {
	Greeting string
	Name     string
}

func NewGreeter(greeting, name string) *Greeter {
	return &Greeter{Greeting: greeting, Name: name}
}

type optionalDeps struct {
	Logger Logger
	Clock  Clock
}

func newOptionalDeps(logger Logger, clock Clock) *optionalDeps {
	return &optionalDeps{Logger: logger, Clock: clock}
}

type namedFields struct {
	Main    Logger `di:"main"`
	Audit   Logger `di:"audit,?"`
	Skipped Logger
}

type hostPanel struct {
	id    string
	Clock Clock `di:""`
}

type panelFactory struct {
	made int
}

func (f *panelFactory) CanConstruct(t reflect.Type) bool {
	return t == reflect.TypeOf(&hostPanel{})
}

func (f *panelFactory) Construct(t reflect.Type) (any, error) {
	f.made++
	return &hostPanel{id: "native"}, nil
}

type tagSet struct {
	Tags []string
}

func newTagSet(tags []string) *tagSet { return &tagSet{Tags: tags} }

// loopLogger 的构造依赖 Logger，loggingService 自身也实现 Logger
type loopLogger struct{ next Logger }

func (l *loopLogger) Log(msg string) {}

func newLoopLogger(next Logger) *loopLogger { return &loopLogger{next: next} }

type loggingService struct{ Logger Logger }

func (s *loggingService) Log(msg string) {}

func newLoggingService(logger Logger) *loggingService { return &loggingService{Logger: logger} }

type peerA struct{ B *peerB }
type peerB struct{ A *peerA }

func (a *peerA) Inject(b *peerB) { a.B = b }
func (b *peerB) Inject(a *peerA) { b.A = a }

type shadowBase struct {
	calls []string
}

func (b *shadowBase) Setup() { b.calls = append(b.calls, "base.Setup") }

type shadowWidget struct {
	shadowBase
}

func (w *shadowWidget) Setup() { w.calls = append(w.calls, "outer.Setup") }

type snapshotConfig struct {
	Value any
}

var staticClock Clock

type staticHolder struct{}

func initStatic(clock Clock) { staticClock = clock }

type failingCtor struct{}

func newFailingCtor() (*failingCtor, error) {
	return nil, errors.New("no disk")
}

func init() {
	di.Describe[*Service](di.Constructor(NewService, "logger", "clock"))
	di.Describe[*ConsumerA](di.Constructor(NewConsumerA, "logger"))
	di.Describe[*ConsumerB](di.Constructor(NewConsumerB, "logger"))
	di.Describe[*Reporter](di.Constructor(NewReporter, "primary", "backup"))
	di.Describe[*CycleA](di.Constructor(NewCycleA))
	di.Describe[*CycleB](di.Constructor(NewCycleB))
	di.Describe[*PluginHost](di.Constructor(NewPluginHost, "plugins"))
	di.Describe[*baseWidget](di.Method("Init"), di.Method("Attach"))
	di.Describe[*derivedWidget](di.Method("Attach"), di.Method("Ready"))
	di.Describe[*fragile](di.Method("First"), di.Method("Second"))
	di.Describe[*panicky](di.Method("Setup"))
	di.Describe[*Greeter](di.Constructor(NewGreeter, "greeting", "name"))
	di.Describe[*optionalDeps](di.Constructor(newOptionalDeps, "logger,?", "?"))
	di.Describe[staticHolder](di.Static(initStatic, "clock"))
	di.Describe[*failingCtor](di.Constructor(newFailingCtor))
	di.Describe[*tagSet](di.Constructor(newTagSet, "tags"))
	di.Describe[*loopLogger](di.Constructor(newLoopLogger, "next"))
	di.Describe[*loggingService](di.Constructor(newLoggingService, "logger"))
	di.Describe[*peerA](di.Method("Inject", "b"))
	di.Describe[*peerB](di.Method("Inject", "a"))
	di.Describe[*shadowBase](di.Method("Setup"))
}

func newTestRegistry(opts ...di.RegistryOption) (*di.Registry, *logging.MemoryLoggerProvider) {
	logger, memory := logging.NewMemoryLogger("di")
	return di.NewRegistry(append([]di.RegistryOption{di.WithLogger(logger)}, opts...)...), memory
}

func fieldOf(entry logging.LogEntry, key string) any {
	for _, f := range entry.Fields {
		if f.Key == key {
			return f.Value
		}
	}
	return nil
}
