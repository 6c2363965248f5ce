package bus

import (
	"fmt"

	"go.uber.org/zap"
)

// Wildcard subscribes to every topic
const Wildcard = "*"

// Message is a single published event
type Message struct {
	Topic   string      `json:"topic"`
	Payload interface{} `json:"payload,omitempty"`
}

// Handler receives published messages
type Handler func(msg Message)

// Subscription identifies a registered handler
type Subscription uint64

// Bus is the publish/subscribe contract the engine depends on
type Bus interface {
	Publish(topic string, payload interface{})
	Subscribe(topic string, h Handler) Subscription
	Unsubscribe(sub Subscription)
}

// Local is a synchronous in-process bus. Delivery happens on the
// publisher's goroutine in subscription order. Not safe for concurrent use.
type Local struct {
	next   Subscription
	topics map[string][]*entry
	byID   map[Subscription]*entry
	logger *zap.Logger
}

type entry struct {
	id      Subscription
	topic   string
	handler Handler
	removed bool
}

// NewLocal creates an empty bus
func NewLocal(logger *zap.Logger) *Local {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Local{
		topics: make(map[string][]*entry),
		byID:   make(map[Subscription]*entry),
		logger: logger,
	}
}

// Publish delivers payload to every handler of topic, then to wildcard
// handlers. Handlers unsubscribed during delivery are skipped; a panicking
// handler is logged and does not stop delivery to the rest.
func (b *Local) Publish(topic string, payload interface{}) {
	msg := Message{Topic: topic, Payload: payload}

	targets := append([]*entry(nil), b.topics[topic]...)
	if topic != Wildcard {
		targets = append(targets, b.topics[Wildcard]...)
	}

	for _, e := range targets {
		if e.removed {
			continue
		}
		b.deliver(e, msg)
	}
}

// Subscribe registers h for topic
func (b *Local) Subscribe(topic string, h Handler) Subscription {
	b.next++
	e := &entry{id: b.next, topic: topic, handler: h}
	b.topics[topic] = append(b.topics[topic], e)
	b.byID[e.id] = e
	return e.id
}

// Unsubscribe removes a handler; unknown subscriptions are ignored
func (b *Local) Unsubscribe(sub Subscription) {
	e, ok := b.byID[sub]
	if !ok {
		return
	}
	e.removed = true
	delete(b.byID, sub)

	list := b.topics[e.topic]
	for i, candidate := range list {
		if candidate == e {
			list = append(list[:i:i], list[i+1:]...)
			break
		}
	}
	if len(list) == 0 {
		delete(b.topics, e.topic)
	} else {
		b.topics[e.topic] = list
	}
}

// Count returns the number of live subscriptions for topic
func (b *Local) Count(topic string) int {
	return len(b.topics[topic])
}

func (b *Local) deliver(e *entry, msg Message) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("Bus handler panicked",
				zap.String("topic", msg.Topic),
				zap.String("panic", fmt.Sprint(r)),
			)
		}
	}()
	e.handler(msg)
}
