package eventbus

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBus_PublishSubscribe(t *testing.T) {
	bus := New[string]()
	var received string
	bus.Subscribe(func(s string) { received = s })

	bus.Publish("hello")

	assert.Equal(t, "hello", received)
}

func TestBus_DeliversInSubscriptionOrder(t *testing.T) {
	bus := New[int]()
	var order []int
	for i := range 5 {
		bus.Subscribe(func(int) { order = append(order, i) })
	}

	bus.Publish(0)

	assert.Equal(t, []int{0, 1, 2, 3, 4}, order)
}

func TestBus_Unsubscribe(t *testing.T) {
	bus := New[string]()
	called := false
	unsub := bus.Subscribe(func(string) { called = true })

	unsub()
	bus.Publish("test")

	assert.False(t, called)
	assert.Equal(t, 0, bus.Count())
}

func TestBus_HandlerMayUnsubscribeItself(t *testing.T) {
	bus := New[int]()
	calls := 0
	var unsub func()
	unsub = bus.Subscribe(func(int) {
		calls++
		unsub()
	})

	bus.Publish(1)
	bus.Publish(2)

	assert.Equal(t, 1, calls)
}

func TestBus_ConcurrentPublish(t *testing.T) {
	bus := New[int]()
	var mu sync.Mutex
	total := 0
	bus.Subscribe(func(n int) {
		mu.Lock()
		total += n
		mu.Unlock()
	})

	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			bus.Publish(2)
		}()
	}
	wg.Wait()

	assert.Equal(t, 100, total)
}
