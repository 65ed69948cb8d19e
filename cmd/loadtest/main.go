// Standalone load-test client: spins up one host plus N players against a
// running server and plays a few noisy rounds.
package main

import (
	"encoding/json"
	"fmt"
	"log"
	"math/rand"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const wsURL = "ws://localhost:3000/ws"

type wsMessage struct {
	Type string          `json:"type"`
	Seq  int64           `json:"seq,omitempty"`
	Data json.RawMessage `json:"data,omitempty"`
}

type client struct {
	name string
	conn *websocket.Conn
	seq  int64
	mu   sync.Mutex
}

func dial(name string) *client {
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		log.Fatalf("%s: dial: %v", name, err)
	}
	return &client{name: name, conn: conn}
}

func (c *client) send(event string, payload any) int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	data, _ := json.Marshal(payload)
	msg := wsMessage{Type: event, Seq: c.seq, Data: data}
	if err := c.conn.WriteJSON(msg); err != nil {
		log.Fatalf("%s: write %s: %v", c.name, event, err)
	}
	return c.seq
}

// awaitAck reads frames until the ack for seq shows up, skipping broadcasts.
func (c *client) awaitAck(seq int64) map[string]any {
	for {
		var msg wsMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			log.Fatalf("%s: read: %v", c.name, err)
		}
		if msg.Type != "ack" || msg.Seq != seq {
			continue
		}
		var body map[string]any
		_ = json.Unmarshal(msg.Data, &body)
		if errMsg, ok := body["error"].(string); ok && errMsg != "" {
			log.Printf("%s: ack error: %s", c.name, errMsg)
		}
		return body
	}
}

func (c *client) drain() {
	go func() {
		for {
			if _, _, err := c.conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func main() {
	numPlayers := 3
	if len(os.Args) > 1 {
		if n, err := strconv.Atoi(os.Args[1]); err == nil && n > 0 {
			numPlayers = n
		}
	}

	host := dial("host")
	seq := host.send("create_room", map[string]string{"name": "host"})
	body := host.awaitAck(seq)
	result, _ := body["result"].(map[string]any)
	code, _ := result["code"].(string)
	if code == "" {
		log.Fatal("no room code in create_room ack")
	}
	fmt.Println("room:", code)

	// Vote targets are connection ids; collect them from the join acks.
	var ids []string
	players := make([]*client, 0, numPlayers)
	for i := 0; i < numPlayers; i++ {
		name := fmt.Sprintf("player%d", i)
		p := dial(name)
		body := p.awaitAck(p.send("join_room", map[string]string{"code": code, "name": name}))
		if view, ok := body["result"].(map[string]any); ok {
			if list, ok := view["players"].([]any); ok {
				ids = ids[:0]
				for _, entry := range list {
					if m, ok := entry.(map[string]any); ok {
						if id, ok := m["id"].(string); ok {
							ids = append(ids, id)
						}
					}
				}
			}
		}
		p.drain()
		players = append(players, p)
	}
	if len(ids) == 0 {
		log.Fatal("no player ids in join_room ack")
	}

	for round := 1; round <= 3; round++ {
		host.awaitAck(host.send("start_round", map[string]any{
			"code": code, "mode": "classic", "durationSec": 5,
		}))

		var wg sync.WaitGroup
		for _, p := range players {
			wg.Add(1)
			go func(p *client) {
				defer wg.Done()
				if rand.Intn(4) > 0 { // some players slack off
					p.send("submit_photo", map[string]string{
						"code": code, "payload": fmt.Sprintf("img-%s-%d", p.name, round),
					})
				}
				time.Sleep(time.Duration(rand.Intn(500)) * time.Millisecond)
				target := ids[rand.Intn(len(ids))]
				p.send("vote_best", map[string]string{"code": code, "targetId": target})
				if rand.Intn(3) == 0 {
					p.send("flag_lazy", map[string]string{"code": code, "targetId": target})
				}
			}(p)
		}
		wg.Wait()

		time.Sleep(time.Second)
		host.awaitAck(host.send("end_round", map[string]string{"code": code}))
		fmt.Println("round", round, "done")
	}

	for _, p := range players {
		p.send("leave_room", map[string]string{"code": code})
		p.conn.Close()
	}
	host.conn.Close()
}
