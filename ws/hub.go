package ws

import (
	"context"
	"encoding/json"
	"log"
	"strings"

	"github.com/redis/go-redis/v9"
)

// Hub holds local connections and bridges Redis pub/sub channels for
// cross-instance delivery. Conversation topics are explicit subscriptions;
// user and staff-DM topics are implicit from the authenticated identity.
type Hub struct {
	rdb *redis.Client

	clients       map[string]map[*Client]bool // identity key -> set of clients
	subscriptions map[string]map[*Client]bool // topic -> set of clients

	register    chan *Client
	unregister  chan *Client
	subscribe   chan subscription
	unsubscribe chan subscription
	broadcast   chan *Event
}

type subscription struct {
	client *Client
	topic  string
}

// Event is one payload addressed to a topic.
type Event struct {
	Topic   string
	Payload []byte
}

func NewHub(rdb *redis.Client) *Hub {
	h := &Hub{
		rdb:           rdb,
		clients:       make(map[string]map[*Client]bool),
		subscriptions: make(map[string]map[*Client]bool),
		register:      make(chan *Client),
		unregister:    make(chan *Client),
		subscribe:     make(chan subscription),
		unsubscribe:   make(chan subscription),
		broadcast:     make(chan *Event, 256),
	}
	go h.run()
	return h
}

func (h *Hub) run() {
	if h.rdb != nil {
		pubsub := h.rdb.PSubscribe(context.Background(), "conversation:*", "user:*", "staffdm:*")
		ch := pubsub.Channel()
		go func() {
			for msg := range ch {
				h.broadcast <- &Event{Topic: msg.Channel, Payload: []byte(msg.Payload)}
			}
		}()
	}

	for {
		select {
		case c := <-h.register:
			key := c.identity.Key()
			if _, ok := h.clients[key]; !ok {
				h.clients[key] = make(map[*Client]bool)
			}
			h.clients[key][c] = true
			log.Printf("ws: client registered: %s", key)

		case c := <-h.unregister:
			key := c.identity.Key()
			if conns, ok := h.clients[key]; ok {
				if _, exists := conns[c]; exists {
					delete(conns, c)
					close(c.send)
				}
				if len(conns) == 0 {
					delete(h.clients, key)
				}
			}
			for topic, subs := range h.subscriptions {
				delete(subs, c)
				if len(subs) == 0 {
					delete(h.subscriptions, topic)
				}
			}

		case s := <-h.subscribe:
			if _, ok := h.subscriptions[s.topic]; !ok {
				h.subscriptions[s.topic] = make(map[*Client]bool)
			}
			h.subscriptions[s.topic][s.client] = true

		case s := <-h.unsubscribe:
			if subs, ok := h.subscriptions[s.topic]; ok {
				delete(subs, s.client)
				if len(subs) == 0 {
					delete(h.subscriptions, s.topic)
				}
			}

		case e := <-h.broadcast:
			h.deliver(e)
		}
	}
}

func (h *Hub) deliver(e *Event) {
	switch {
	case strings.HasPrefix(e.Topic, "conversation:"):
		for c := range h.subscriptions[e.Topic] {
			h.push(c, e.Payload)
		}
	case strings.HasPrefix(e.Topic, "user:"):
		// user:<identity-key>:conversations
		parts := strings.Split(e.Topic, ":")
		if len(parts) != 3 {
			return
		}
		for c := range h.clients[parts[1]] {
			h.push(c, e.Payload)
		}
	case strings.HasPrefix(e.Topic, "staffdm:"):
		key := "user-" + strings.TrimPrefix(e.Topic, "staffdm:")
		for c := range h.clients[key] {
			h.push(c, e.Payload)
		}
	}
}

// push drops slow clients instead of blocking the hub loop.
func (h *Hub) push(c *Client, payload []byte) {
	select {
	case c.send <- payload:
	default:
		h.drop(c)
	}
}

// drop removes a client from the identity map and every subscription set
// before closing its channel, so no later event can send on the closed
// channel.
func (h *Hub) drop(c *Client) {
	key := c.identity.Key()
	delete(h.clients[key], c)
	if len(h.clients[key]) == 0 {
		delete(h.clients, key)
	}
	for topic, subs := range h.subscriptions {
		delete(subs, c)
		if len(subs) == 0 {
			delete(h.subscriptions, topic)
		}
	}
	close(c.send)
}

func (h *Hub) RegisterClient(c *Client)   { h.register <- c }
func (h *Hub) UnregisterClient(c *Client) { h.unregister <- c }

func (h *Hub) Subscribe(c *Client, topic string)   { h.subscribe <- subscription{c, topic} }
func (h *Hub) Unsubscribe(c *Client, topic string) { h.unsubscribe <- subscription{c, topic} }

// Publish sends an event through Redis so every instance (including this one)
// fans it out. Without a Redis client it loops back locally.
func (h *Hub) Publish(ctx context.Context, topic string, payload interface{}) {
	b, err := json.Marshal(payload)
	if err != nil {
		log.Printf("ws: marshal event for %s: %v", topic, err)
		return
	}
	if h.rdb == nil {
		h.broadcast <- &Event{Topic: topic, Payload: b}
		return
	}
	if err := h.rdb.Publish(ctx, topic, b).Err(); err != nil {
		log.Printf("ws: publish %s: %v", topic, err)
	}
}
