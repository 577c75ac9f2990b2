// Package sse provides Server-Sent Events client management for image batch progress.
package sse

import (
	"encoding/json"
	"sync"

	"github.com/rs/zerolog"
)

const clientBuffer = 32

var sseLogger zerolog.Logger

func SetLogger(l zerolog.Logger) {
	sseLogger = l
}

// Message is one SSE frame. An empty Event sends a default "message" event.
type Message struct {
	Event string
	Data  string
}

type Client struct {
	Msg   chan Message
	Topic string
}

func NewClient(topic string) *Client {
	return &Client{
		Msg:   make(chan Message, clientBuffer),
		Topic: topic,
	}
}

type SSEClients struct {
	clients map[*Client]bool
	mu      sync.RWMutex
}

func NewSSEClients() *SSEClients {
	return &SSEClients{
		clients: make(map[*Client]bool),
	}
}

func (s *SSEClients) Add(client *Client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clients[client] = true
}

func (s *SSEClients) Delete(client *Client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.clients[client]; !ok {
		return
	}
	delete(s.clients, client)
	close(client.Msg)
}

// Count reports how many clients listen on topic.
func (s *SSEClients) Count(topic string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for client := range s.clients {
		if client.Topic == topic {
			n++
		}
	}
	return n
}

// Broadcast sends msg to every client on topic. Clients with a full buffer miss the message.
func (s *SSEClients) Broadcast(topic string, msg Message) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for client := range s.clients {
		if client.Topic == topic {
			select {
			case client.Msg <- msg:
			default:
				sseLogger.Warn().Str("topic", topic).Str("event", msg.Event).Msg("Dropped message for slow client")
			}
		}
	}
}

// BroadcastJSON encodes v as the data of an event on topic.
func (s *SSEClients) BroadcastJSON(topic, event string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	s.Broadcast(topic, Message{Event: event, Data: string(data)})
	return nil
}
