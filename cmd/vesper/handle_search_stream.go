package main

import (
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/patrickward/vesper"
	"github.com/patrickward/vesper/internal/search"
)

const writeWait = 10 * time.Second

// The default origin check only accepts same-host pages.
var upgrader = websocket.Upgrader{}

// streamMessage is sent to search stream clients. A stream is one "started" message,
// zero or more "match" messages and a final "done" message.
type streamMessage struct {
	Type    string            `json:"type"`
	JobID   string            `json:"job_id,omitempty"`
	Matches []matchResponse   `json:"matches,omitempty"`
	Status  *vesper.JobStatus `json:"status,omitempty"`
}

// streamRequest is read from search stream clients; {"type": "cancel"} stops the search.
type streamRequest struct {
	Type string `json:"type"`
}

type wsSafeConn struct {
	conn      *websocket.Conn
	mu        sync.Mutex
	closeOnce sync.Once
}

func (sc *wsSafeConn) WriteJSON(v any) error {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	_ = sc.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return sc.conn.WriteJSON(v)
}

func (sc *wsSafeConn) Close() {
	sc.closeOnce.Do(func() {
		sc.mu.Lock()
		_ = sc.conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second),
		)
		sc.mu.Unlock()
		_ = sc.conn.Close()
	})
}

// handleSearchStream runs a search and pushes each file's matches over a websocket as
// soon as the file has been scanned.
func (s *Server) handleSearchStream(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	root, err := s.workspace.Root().Resolve(query.Get("path"))
	if err != nil {
		s.respondWithError(w, r, err)
		return
	}
	withHTML := wantsHTML(r)

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("Search stream upgrade failed: %v", err)
		return
	}
	sc := &wsSafeConn{conn: conn}
	defer sc.Close()

	var job *vesper.SearchJob
	started := make(chan struct{})

	job = s.searches.Start(root, query.Get("q"), func(batch []search.SearchMatch) {
		<-started
		msg := streamMessage{Type: "match", JobID: job.ID, Matches: s.matchResponses(batch, withHTML)}
		if err := sc.WriteJSON(msg); err != nil {
			job.Cancel()
		}
	})

	if err := sc.WriteJSON(streamMessage{Type: "started", JobID: job.ID}); err != nil {
		job.Cancel()
	}
	close(started)

	// Reads end with an error once the client goes away or the stream is closed.
	go func() {
		for {
			var req streamRequest
			if err := conn.ReadJSON(&req); err != nil {
				job.Cancel()
				return
			}
			if req.Type == "cancel" {
				job.Cancel()
			}
		}
	}()

	<-job.Done()
	status := job.Status()
	_ = sc.WriteJSON(streamMessage{Type: "done", JobID: job.ID, Status: &status})
}
