package apiserver

import (
	"encoding/json"

	"github.com/gorilla/websocket"

	"github.com/burenotti/runbox/internal/logging"
	"github.com/burenotti/runbox/internal/pipeline"
)

// outputFrame is the wire shape of one Observer.WriteOutput call, sent to
// the attached websocket client.
type outputFrame struct {
	Key    string `json:"key"`
	Data   string `json:"data"`
	Stream int    `json:"stream"`
}

// wsObserver adapts a websocket connection to the pipeline.Observer
// interface: inbound text frames become stdin chunks, outbound JSON
// frames carry WriteOutput messages (§4.7 output/input listener).
type wsObserver struct {
	conn  *websocket.Conn
	stdin chan string
}

func newWSObserver(conn *websocket.Conn) *wsObserver {
	o := &wsObserver{conn: conn, stdin: make(chan string)}
	go o.readLoop()
	return o
}

func (o *wsObserver) readLoop() {
	defer close(o.stdin)
	for {
		_, data, err := o.conn.ReadMessage()
		if err != nil {
			return
		}
		o.stdin <- string(data)
	}
}

func (o *wsObserver) Stdin() <-chan string { return o.stdin }

func (o *wsObserver) WriteOutput(key string, data string, stream pipeline.StreamID) {
	frame := outputFrame{Key: key, Data: data, Stream: int(stream)}
	encoded, err := json.Marshal(frame)
	if err != nil {
		return
	}
	if err := o.conn.WriteMessage(websocket.TextMessage, encoded); err != nil {
		logging.S().Debugw("websocket write failed", "error", err)
	}
}
