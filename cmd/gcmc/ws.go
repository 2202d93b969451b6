package main

import (
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

// wsHub streams status reports to websocket clients and accepts
// G-code lines and control characters back from them.
type wsHub struct {
	c *Controller

	mx      sync.Mutex
	clients map[*websocket.Conn]chan []byte
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(*http.Request) bool { return true },
}

func newWSHub(c *Controller) *wsHub {
	return &wsHub{
		c:       c,
		clients: make(map[*websocket.Conn]chan []byte),
	}
}

func (h *wsHub) broadcast(data []byte) {
	h.mx.Lock()
	defer h.mx.Unlock()
	for _, ch := range h.clients {
		select {
		case ch <- data:
		default:
			// slow client: drop the report, the next one
			// supersedes it anyway
		}
	}
}

func (h *wsHub) serve(w http.ResponseWriter, req *http.Request) {
	ws, err := upgrader.Upgrade(w, req, nil)
	if err != nil {
		log.Println("ERROR: upgrade:", err)
		return
	}

	out := make(chan []byte, 16)
	h.mx.Lock()
	h.clients[ws] = out
	h.mx.Unlock()

	done := make(chan struct{})
	go h.readLoop(ws, done)

	for {
		select {
		case <-done:
			h.drop(ws)
			return
		case data := <-out:
			if err := ws.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Println("ERROR: send:", err)
				h.drop(ws)
				return
			}
		}
	}
}

func (h *wsHub) readLoop(ws *websocket.Conn, done chan struct{}) {
	defer close(done)
	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			return
		}
		if len(data) == 1 {
			switch data[0] {
			case '!', '~', '%':
				h.c.Control(data[0])
				continue
			}
		}
		if err := h.c.Submit(string(data) + "\n"); err != nil {
			log.Printf("ERROR: ws submit: %+v", err)
		}
	}
}

func (h *wsHub) drop(ws *websocket.Conn) {
	h.mx.Lock()
	delete(h.clients, ws)
	h.mx.Unlock()
	ws.Close()
}
