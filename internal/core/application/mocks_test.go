package application_test

import (
	"context"
	"sync"
	"time"

	"github.com/paystell/paystell-daemon/internal/core/ports"
	"github.com/paystell/paystell-daemon/pkg/realtime"
	"github.com/stretchr/testify/mock"
)

// **** Network ****

type mockNetwork struct {
	mock.Mock
}

func (m *mockNetwork) SubmitTransaction(
	ctx context.Context, envelope string,
) (ports.NetworkTransaction, error) {
	args := m.Called(ctx, envelope)

	var res ports.NetworkTransaction
	if a := args.Get(0); a != nil {
		res = a.(ports.NetworkTransaction)
	}
	return res, args.Error(1)
}

func (m *mockNetwork) GetTransaction(
	ctx context.Context, hash string,
) (ports.NetworkTransaction, error) {
	args := m.Called(ctx, hash)

	var res ports.NetworkTransaction
	if a := args.Get(0); a != nil {
		res = a.(ports.NetworkTransaction)
	}
	return res, args.Error(1)
}

type networkTx struct {
	hash       string
	successful bool
	codes      []string
}

func (t networkTx) GetHash() string          { return t.hash }
func (t networkTx) IsSuccessful() bool       { return t.successful }
func (t networkTx) GetLedger() int64         { return 1 }
func (t networkTx) GetCreatedAt() time.Time  { return time.Time{} }
func (t networkTx) GetResultCodes() []string { return t.codes }

// **** PubSub ****

type published struct {
	owner   string
	topic   string
	message string
}

// recordingPubSub records every published message.
type recordingPubSub struct {
	lock     sync.Mutex
	messages []published
}

func (p *recordingPubSub) Subscribe(string, string, string, string) (string, error) {
	return "", nil
}

func (p *recordingPubSub) Unsubscribe(string, string) error {
	return nil
}

func (p *recordingPubSub) ListSubscriptionsForTopic(string, string) []ports.Subscription {
	return nil
}

func (p *recordingPubSub) Publish(owner, topic, message string) error {
	p.lock.Lock()
	defer p.lock.Unlock()
	p.messages = append(p.messages, published{owner, topic, message})
	return nil
}

func (p *recordingPubSub) Close() error {
	return nil
}

func (p *recordingPubSub) topics() []string {
	p.lock.Lock()
	defer p.lock.Unlock()

	topics := make([]string, 0, len(p.messages))
	for _, m := range p.messages {
		topics = append(topics, m.topic)
	}
	return topics
}

func (p *recordingPubSub) owners() []string {
	p.lock.Lock()
	defer p.lock.Unlock()

	owners := make([]string, 0, len(p.messages))
	for _, m := range p.messages {
		owners = append(owners, m.owner)
	}
	return owners
}

// **** Realtime channel ****

type fakeChannel struct {
	lock        sync.Mutex
	handlers    map[realtime.MessageType]map[uint64]realtime.Handler
	nextID      uint64
	connected   bool
	connectErr  error
	disconnects int
}

func newFakeChannel() *fakeChannel {
	return &fakeChannel{
		handlers: make(map[realtime.MessageType]map[uint64]realtime.Handler),
	}
}

func (c *fakeChannel) Connect(context.Context) error {
	c.lock.Lock()
	defer c.lock.Unlock()
	if c.connectErr != nil {
		return c.connectErr
	}
	c.connected = true
	return nil
}

func (c *fakeChannel) Disconnect() {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.connected = false
	c.disconnects++
}

func (c *fakeChannel) On(msgType realtime.MessageType, h realtime.Handler) uint64 {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.nextID++
	if c.handlers[msgType] == nil {
		c.handlers[msgType] = make(map[uint64]realtime.Handler)
	}
	c.handlers[msgType][c.nextID] = h
	return c.nextID
}

func (c *fakeChannel) Off(msgType realtime.MessageType, id uint64) bool {
	c.lock.Lock()
	defer c.lock.Unlock()
	if _, ok := c.handlers[msgType][id]; !ok {
		return false
	}
	delete(c.handlers[msgType], id)
	return true
}

func (c *fakeChannel) Status() realtime.Status {
	c.lock.Lock()
	defer c.lock.Unlock()
	if c.connected {
		return realtime.Status{State: realtime.StateConnected, IsConnected: true}
	}
	return realtime.Status{State: realtime.StateDisconnected}
}

func (c *fakeChannel) numHandlers() int {
	c.lock.Lock()
	defer c.lock.Unlock()
	n := 0
	for _, hs := range c.handlers {
		n += len(hs)
	}
	return n
}

// push delivers a message to the handlers as the read loop would.
func (c *fakeChannel) push(
	msgType realtime.MessageType, data interface{}, ts time.Time,
) {
	msg, err := realtime.NewMessage(msgType, data, ts)
	if err != nil {
		panic(err)
	}

	c.lock.Lock()
	handlers := make([]realtime.Handler, 0)
	for _, h := range c.handlers[msgType] {
		handlers = append(handlers, h)
	}
	c.lock.Unlock()

	for _, h := range handlers {
		h(msg)
	}
}
