package ws

import (
	"context"
	"encoding/json"
	"log"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/cmenning/asu-calculator/internal/engine"
	"github.com/cmenning/asu-calculator/internal/persistence/snapshot"
	"github.com/cmenning/asu-calculator/internal/protocol"
)

const defaultPoll = 2 * time.Second

// Server exposes the report for the current snapshot over HTTP and a
// websocket feed. It only ever reads the snapshot.
type Server struct {
	store  *snapshot.Store
	engine *engine.Engine
	target int64
	log    *log.Logger

	// Poll is how often connected feeds check the snapshot for changes.
	Poll time.Duration
	// LoopbackOnly rejects requests from non-loopback addresses.
	LoopbackOnly bool

	now      func() time.Time
	upgrader websocket.Upgrader
}

func NewServer(store *snapshot.Store, e *engine.Engine, target int64, logger *log.Logger) *Server {
	return &Server{
		store:  store,
		engine: e,
		target: target,
		log:    logger,
		Poll:   defaultPoll,
		now:    time.Now,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
	}
}

// Mux wires the report endpoints.
func (s *Server) Mux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/report", s.ReportHandler())
	mux.HandleFunc("/v1/ws", s.Handler())
	mux.HandleFunc("/healthz", func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(http.StatusOK)
		_, _ = rw.Write([]byte("ok"))
	})
	return mux
}

func (s *Server) report() (protocol.ReportMsg, error) {
	mod := s.store.ModTime()
	inv, err := s.store.Peek()
	if err != nil {
		return protocol.ReportMsg{}, err
	}
	now := s.now()
	return protocol.NewReport(s.engine.Summarize(inv, s.target, now), mod, now), nil
}

func (s *Server) ReportHandler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeHTTPError(rw, http.StatusMethodNotAllowed, protocol.ErrMethodNotAllowed, "GET only")
			return
		}
		if s.LoopbackOnly && !isLoopbackRemote(r.RemoteAddr) {
			http.Error(rw, "forbidden", http.StatusForbidden)
			return
		}
		msg, err := s.report()
		if err != nil {
			s.log.Printf("report: %v", err)
			writeHTTPError(rw, http.StatusInternalServerError, protocol.ErrSnapshot, err.Error())
			return
		}
		b, err := json.Marshal(msg)
		if err != nil {
			s.log.Printf("report: encode: %v", err)
			writeHTTPError(rw, http.StatusInternalServerError, protocol.ErrInternal, "encode report")
			return
		}
		rw.Header().Set("Content-Type", "application/json")
		_, _ = rw.Write(append(b, '\n'))
	}
}

// Handler serves the websocket feed: one REPORT on connect, then another
// each time the snapshot's modification time changes.
func (s *Server) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		if s.LoopbackOnly && !isLoopbackRemote(r.RemoteAddr) {
			http.Error(rw, "forbidden", http.StatusForbidden)
			return
		}
		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		out := make(chan any, 4)

		// Writer goroutine.
		writeErr := make(chan error, 1)
		go func() {
			for {
				select {
				case <-ctx.Done():
					writeErr <- ctx.Err()
					return
				case v := <-out:
					if err := writeJSON(conn, v); err != nil {
						cancel()
						writeErr <- err
						return
					}
				}
			}
		}()

		// Poller.
		go s.watch(ctx, out)

		// Reader loop: the feed is read-only. Anything a client sends is
		// answered with E_BAD_REQUEST.
		for {
			_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
			_, b, err := conn.ReadMessage()
			if err != nil {
				break
			}
			reply := protocol.NewError(protocol.ErrBadRequest, "feed is read-only")
			if base, err := protocol.DecodeBase(b); err != nil {
				reply.Message = "invalid json: " + err.Error()
			} else if base.Type != "" {
				reply.Message = "feed is read-only, got " + base.Type
			}
			select {
			case out <- reply:
			default:
			}
		}

		cancel()
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"), time.Now().Add(time.Second))

		select {
		case <-writeErr:
		case <-time.After(500 * time.Millisecond):
		}
	}
}

func (s *Server) watch(ctx context.Context, out chan<- any) {
	poll := s.Poll
	if poll <= 0 {
		poll = defaultPoll
	}
	push := func() {
		msg, err := s.report()
		var v any = msg
		if err != nil {
			s.log.Printf("feed: %v", err)
			v = protocol.NewError(protocol.ErrSnapshot, err.Error())
		}
		select {
		case out <- v:
		case <-ctx.Done():
		}
	}

	// A failed revision is reported once, not on every tick.
	last := s.store.ModTime()
	push()
	t := time.NewTicker(poll)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if mod := s.store.ModTime(); !mod.Equal(last) {
				last = mod
				push()
			}
		}
	}
}

func writeJSON(conn *websocket.Conn, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	return conn.WriteMessage(websocket.TextMessage, b)
}

func writeHTTPError(rw http.ResponseWriter, status int, code, msg string) {
	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(status)
	_ = json.NewEncoder(rw).Encode(protocol.NewError(code, msg))
}

func isLoopbackRemote(remoteAddr string) bool {
	host := remoteAddr
	if h, _, err := net.SplitHostPort(remoteAddr); err == nil {
		host = h
	}
	host = strings.TrimPrefix(host, "[")
	host = strings.TrimSuffix(host, "]")
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
