package websocket

import (
	"encoding/json"
	"sort"
	"sync"
)

// Client is one WebSocket connection. With no subscriptions it receives
// events for every locker.
type Client struct {
	hub  *Hub
	send chan []byte

	mu   sync.RWMutex
	subs map[int]bool
}

// NewClient creates a new WebSocket client.
func NewClient(hub *Hub) *Client {
	return &Client{
		hub:  hub,
		send: make(chan []byte, sendBuffer),
		subs: make(map[int]bool),
	}
}

// Send returns the send channel for the client.
func (c *Client) Send() chan []byte {
	return c.send
}

// Subscribe restricts delivery to the given lockers, in addition to any
// already subscribed.
func (c *Client) Subscribe(ids ...int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, id := range ids {
		if id > 0 {
			c.subs[id] = true
		}
	}
}

// Unsubscribe drops lockers from the subscription set. With no ids it
// clears the set, so the client receives everything again.
func (c *Client) Unsubscribe(ids ...int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(ids) == 0 {
		c.subs = make(map[int]bool)
		return
	}
	for _, id := range ids {
		delete(c.subs, id)
	}
}

// Wants reports whether an event for lockerID should reach this client.
func (c *Client) Wants(lockerID int) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.subs) == 0 || c.subs[lockerID]
}

// Subscriptions returns the subscribed locker ids in ascending order.
func (c *Client) Subscriptions() []int {
	c.mu.RLock()
	ids := make([]int, 0, len(c.subs))
	for id := range c.subs {
		ids = append(ids, id)
	}
	c.mu.RUnlock()
	sort.Ints(ids)
	return ids
}

// Handle processes one command sent by the client and queues the reply.
func (c *Client) Handle(raw []byte) {
	var in inbound
	if err := json.Unmarshal(raw, &in); err != nil {
		c.reply(NewMessage(TypeError, ErrorPayload{Code: "bad_request", Message: "message is not valid JSON"}))
		return
	}

	switch in.Type {
	case TypePing:
		c.reply(NewMessage(TypePong, nil))

	case TypeSubscribe, TypeUnsubscribe:
		var p SubscribePayload
		if len(in.Payload) > 0 {
			if err := json.Unmarshal(in.Payload, &p); err != nil {
				c.reply(NewMessage(TypeError, ErrorPayload{Code: "bad_request", Message: "invalid subscription payload", OriginalType: string(in.Type)}))
				return
			}
		}
		if in.Type == TypeSubscribe {
			c.Subscribe(p.LockerIDs...)
		} else {
			c.Unsubscribe(p.LockerIDs...)
		}
		subs := c.Subscriptions()
		c.reply(NewMessage(TypeSubscribeAck, SubscribeAckPayload{LockerIDs: subs, All: len(subs) == 0}))

	default:
		c.reply(NewMessage(TypeError, ErrorPayload{Code: "unknown_type", Message: "unsupported message type", OriginalType: string(in.Type)}))
	}
}

// reply queues msg for this client only. Replies are dropped if the buffer is full.
func (c *Client) reply(msg Message) {
	data, err := msg.JSON()
	if err != nil {
		return
	}
	c.hub.mu.RLock()
	defer c.hub.mu.RUnlock()
	if !c.hub.clients[c] {
		return
	}
	select {
	case c.send <- data:
	default:
	}
}
