package sse

import (
	"fmt"
	"net/http"
	"slices"

	"github.com/debemdeboas/homestead/internal/config"
)

// Handler streams messages for the topic named by the query parameter param until the client goes away
// or a message with one of the final event names has been written.
func Handler(clients *SSEClients, param string, final ...string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		topic := r.URL.Query().Get(param)
		if topic == "" {
			http.Error(w, config.ErrBatchRequired, http.StatusBadRequest)
			return
		}

		flusher, ok := w.(http.Flusher)
		if !ok {
			http.Error(w, config.ErrStreamingUnsupp, http.StatusInternalServerError)
			return
		}

		w.Header().Set(config.HCType, config.CTypeEventStream)
		w.Header().Set(config.HCacheControl, "no-cache")
		w.Header().Set("Connection", "keep-alive")

		client := NewClient(topic)
		clients.Add(client)
		sseLogger.Debug().Str("topic", topic).Msg("SSE client connected")

		defer func() {
			clients.Delete(client)
			sseLogger.Debug().Str("topic", topic).Msg("SSE client disconnected")
		}()

		fmt.Fprintf(w, "event: connected\ndata: %s\n\n", topic)
		flusher.Flush()

		notify := r.Context().Done()
		for {
			select {
			case msg, ok := <-client.Msg:
				if !ok {
					return
				}
				if msg.Event != "" {
					fmt.Fprintf(w, "event: %s\n", msg.Event)
				}
				fmt.Fprintf(w, "data: %s\n\n", msg.Data)
				flusher.Flush()
				if slices.Contains(final, msg.Event) {
					return
				}
			case <-notify:
				return
			}
		}
	}
}
