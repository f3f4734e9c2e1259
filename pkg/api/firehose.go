package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/websocket"

	"github.com/unijobs/unijobs/pkg/search"
)

const (
	firehoseWriteTimeout = 10 * time.Second
	firehosePingInterval = 30 * time.Second
)

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The API is served cross-origin on purpose.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// firehoseInit is the first message of a WebSocket firehose session: a
// snapshot of the newest visible offers, so clients can render immediately
// before live events arrive.
type firehoseInit struct {
	Type   string          `json:"type"`
	Offers []search.Result `json:"offers"`
}

// HandleFirehose serves a one-shot snapshot of the newest visible offers.
func (s *Server) HandleFirehose(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, "Invalid parameters", "limit must be an integer")
			return
		}
		limit = n
	}

	page, err := s.searcher.Search(search.Params{Limit: limit})
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "Failed to fetch offers", err.Error())
		return
	}

	s.writeJSON(w, http.StatusOK, page)
}

// HandleFirehoseWS upgrades to a WebSocket session that first delivers the
// snapshot, then pushes every newly published offer as it is stored.
// Delivery is best effort: a client that cannot keep up misses events.
func (s *Server) HandleFirehoseWS(w http.ResponseWriter, r *http.Request) {
	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warnf("firehose upgrade failed: %v", err)
		return
	}
	defer func() {
		if err := conn.Close(); err != nil {
			logger.Debugf("closing firehose connection: %v", err)
		}
	}()

	page, err := s.searcher.Search(search.Params{})
	if err != nil {
		logger.Errorf("firehose snapshot failed: %v", err)
		return
	}

	if err := writeWS(conn, firehoseInit{Type: "init", Offers: page.Results}); err != nil {
		return
	}

	id, events := s.hub.Register()
	defer s.hub.Unregister(id)

	// Reader goroutine: we never expect client messages, but reading is how
	// close frames and connection drops are noticed.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(firehosePingInterval)
	defer ping.Stop()

	for {
		select {
		case event, ok := <-events:
			if !ok {
				return
			}
			if err := writeWS(conn, event); err != nil {
				return
			}
		case <-ping.C:
			deadline := time.Now().Add(firehoseWriteTimeout)
			if err := conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				return
			}
		case <-done:
			return
		case <-r.Context().Done():
			return
		}
	}
}

func writeWS(conn *websocket.Conn, v any) error {
	if err := conn.SetWriteDeadline(time.Now().Add(firehoseWriteTimeout)); err != nil {
		return err
	}
	return conn.WriteJSON(v)
}
