package host_test

import (
	"errors"
	"reflect"
	"sync"
	"testing"

	"github.com/gocrud/gitplugin/di"
	"github.com/gocrud/gitplugin/host"
	"github.com/gocrud/gitplugin/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type greeting struct {
	Text string
}

type banner struct {
	host.Panel
	Greeting *greeting `di:""`
	ready    bool
}

func (b *banner) Ready() { b.ready = true }

func init() {
	di.Describe[*banner](di.Method("Ready"))
}

func newRegistry(factory *host.WidgetFactory) *di.Registry {
	return di.NewRegistry(
		di.WithLogger(logging.NewNopLogger()),
		di.WithHostFactory(factory),
	)
}

func TestWidgetFactoryAllocatesAndRegistryInjects(t *testing.T) {
	factory := host.NewWidgetFactory()
	host.RegisterWidget(factory, func(id string) *banner {
		return &banner{Panel: host.NewPanel(id)}
	})

	r := newRegistry(factory)
	di.BindInstance(r, &greeting{Text: "hi"})

	win := &host.Window{ID: "main", Title: "Git"}
	child := r.CreateChild()
	di.BindInstance(child, win)

	b, err := di.Instantiate[*banner](child)
	require.NoError(t, err)
	assert.Equal(t, "widget-1", b.WidgetID())
	assert.Same(t, win, b.Window())
	assert.Equal(t, "hi", b.Greeting.Text)
	assert.True(t, b.ready)

	outside, err := di.Instantiate[*banner](r)
	require.NoError(t, err)
	assert.Equal(t, "widget-2", outside.WidgetID())
	assert.Nil(t, outside.Window(), "window is optional outside a window scope")
}

func TestWidgetFactoryErrors(t *testing.T) {
	factory := host.NewWidgetFactory()
	factory.Register(reflect.TypeOf(&banner{}), func(id string) (host.Widget, error) {
		return nil, errors.New("host is shutting down")
	})

	assert.True(t, factory.CanConstruct(reflect.TypeOf(&banner{})))
	assert.False(t, factory.CanConstruct(reflect.TypeOf(&greeting{})))

	_, err := factory.Construct(reflect.TypeOf(&banner{}))
	assert.ErrorContains(t, err, "host is shutting down")

	_, err = factory.Construct(reflect.TypeOf(&greeting{}))
	assert.Error(t, err)

	r := newRegistry(factory)
	_, err = di.Instantiate[*banner](r)
	assert.ErrorContains(t, err, "host is shutting down")
}

func TestMainThreadSerializes(t *testing.T) {
	main := host.NewMainThread()
	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = main.Do(func() error {
				counter++
				return nil
			})
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, counter)

	assert.EqualError(t, main.Do(func() error { return errors.New("nope") }), "nope")
}
