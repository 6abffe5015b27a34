package main

import (
	"encoding/binary"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/kulaginds/rdp-bitmap/internal/codec"
	"github.com/kulaginds/rdp-bitmap/internal/logging"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  64 * 1024,
	WriteBufferSize: 64 * 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// serveDecode runs a websocket endpoint at /decode. Each binary message is
// one tile record (the dump record layout, no file header); the reply is
// u16 width, u16 height followed by the top-down RGBA pixels, ready for a
// browser canvas.
func serveDecode(addr string) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/decode", handleDecode)

	server := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	logging.Info("listening on %s", addr)

	return server.ListenAndServe()
}

func handleDecode(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Warn("websocket upgrade: %v", err)
		return
	}
	defer conn.Close()

	// Codec contexts are not safe for sharing; one per connection.
	ctx := codec.NewInterleaved()

	for {
		messageType, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logging.Warn("websocket read: %v", err)
			}
			return
		}

		if messageType != websocket.BinaryMessage {
			continue
		}

		rec, _, err := parseRecord(msg)
		if err != nil {
			logging.Debug("bad tile record: %v", err)
			writeError(conn, err)
			continue
		}

		img, err := decodeTile(ctx, rec, nil)
		if err != nil {
			logging.Debug("decode: %v", err)
			writeError(conn, err)
			continue
		}

		reply := make([]byte, 4+len(img.Pix))
		binary.LittleEndian.PutUint16(reply[0:2], uint16(rec.Width))
		binary.LittleEndian.PutUint16(reply[2:4], uint16(rec.Height))
		copy(reply[4:], img.Pix)

		if err := conn.WriteMessage(websocket.BinaryMessage, reply); err != nil {
			logging.Warn("websocket write: %v", err)
			return
		}
	}
}

func writeError(conn *websocket.Conn, err error) {
	_ = conn.WriteMessage(websocket.TextMessage, []byte("error: "+err.Error()))
}
