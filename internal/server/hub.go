package server

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"tellus/pkg/gen"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(*http.Request) bool {
		return true // Allow all origins for development
	},
}

const writeTimeout = 10 * time.Second

// progressHub fans generation progress out to websocket clients. One
// goroutine owns every connection write; handlers talk to it over
// channels.
type progressHub struct {
	mu         sync.RWMutex
	clients    map[*websocket.Conn]bool
	last       *gen.Progress
	broadcast  chan gen.Progress
	register   chan *websocket.Conn
	unregister chan *websocket.Conn
	done       chan struct{}
	wg         sync.WaitGroup
}

func newProgressHub() *progressHub {
	h := &progressHub{
		clients:    make(map[*websocket.Conn]bool),
		broadcast:  make(chan gen.Progress, 64),
		register:   make(chan *websocket.Conn),
		unregister: make(chan *websocket.Conn),
		done:       make(chan struct{}),
	}
	h.wg.Add(1)
	go h.run()
	return h
}

// notify queues one event. A full queue drops the event rather than
// stalling the generation pipeline on slow clients.
func (h *progressHub) notify(ev gen.Progress) {
	select {
	case h.broadcast <- ev:
	case <-h.done:
	default:
	}
}

func (h *progressHub) registerClient(conn *websocket.Conn) {
	select {
	case h.register <- conn:
	case <-h.done:
	}
}

func (h *progressHub) unregisterClient(conn *websocket.Conn) {
	select {
	case h.unregister <- conn:
	case <-h.done:
	}
}

func (h *progressHub) run() {
	defer h.wg.Done()
	for {
		select {
		case <-h.done:
			return

		case conn := <-h.register:
			if conn == nil {
				continue
			}
			h.mu.Lock()
			h.clients[conn] = true
			last := h.last
			h.mu.Unlock()
			// Late joiners see where the current run stands.
			if last != nil {
				if data, err := json.Marshal(*last); err == nil {
					send(conn, data)
				}
			}

		case conn := <-h.unregister:
			if conn == nil {
				continue
			}
			h.mu.Lock()
			if h.clients[conn] {
				delete(h.clients, conn)
				conn.Close()
			}
			h.mu.Unlock()

		case ev := <-h.broadcast:
			data, err := json.Marshal(ev)
			if err != nil {
				continue
			}

			h.mu.Lock()
			h.last = &ev
			conns := make([]*websocket.Conn, 0, len(h.clients))
			for conn := range h.clients {
				conns = append(conns, conn)
			}
			h.mu.Unlock()

			var failed []*websocket.Conn
			for _, conn := range conns {
				if !send(conn, data) {
					failed = append(failed, conn)
				}
			}
			if len(failed) > 0 {
				h.mu.Lock()
				for _, conn := range failed {
					if h.clients[conn] {
						delete(h.clients, conn)
						conn.Close()
					}
				}
				h.mu.Unlock()
			}
		}
	}
}

func send(conn *websocket.Conn, data []byte) bool {
	conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return conn.WriteMessage(websocket.TextMessage, data) == nil
}

// close disconnects every client and stops the run goroutine.
func (h *progressHub) close() {
	close(h.done)
	h.mu.Lock()
	for conn := range h.clients {
		conn.Close()
		delete(h.clients, conn)
	}
	h.mu.Unlock()
	h.wg.Wait()
}
