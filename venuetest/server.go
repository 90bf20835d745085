// Package venuetest is an in-process fake of the venue backend: the REST
// surface the gateway drives and the push channel the transport listens on.
// Tests script its state, push events, and assert on the calls it received.
package venuetest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"

	"QRKara/model"
)

// Call records one mutating request the fake received.
type Call struct {
	Method string
	Path   string
}

// Server is the scripted fake backend.
type Server struct {
	httpSrv  *httptest.Server
	upgrader websocket.Upgrader

	mu        sync.Mutex
	queue     model.QueueSnapshot
	personal  map[int64][]model.Song
	accounts  map[int64]model.TableAccount
	products  []model.Product
	calls     []Call
	failPaths map[string]int // path substring -> status to fail with, once
	conns     map[*websocket.Conn]bool
}

// NewServer starts the fake backend.
func NewServer() *Server {
	s := &Server{
		personal:  make(map[int64][]model.Song),
		accounts:  make(map[int64]model.TableAccount),
		failPaths: make(map[string]int),
		conns:     make(map[*websocket.Conn]bool),
	}

	r := mux.NewRouter()
	r.Use(s.record)

	r.HandleFunc("/songs/queue/extended", s.handleQueue).Methods(http.MethodGet)
	r.HandleFunc("/users/{id}/songs", s.handlePersonal).Methods(http.MethodGet)
	r.HandleFunc("/admin/songs/lazy/approve-next", s.handleApproveNext).Methods(http.MethodPost)
	r.HandleFunc("/admin/songs/{id}/revert-approve", s.handleRevertApprove).Methods(http.MethodPost)
	r.HandleFunc("/admin/songs/{id}/move-up", s.handleMove(model.QueuePrimary, model.MoveUp)).Methods(http.MethodPost)
	r.HandleFunc("/admin/songs/{id}/move-down", s.handleMove(model.QueuePrimary, model.MoveDown)).Methods(http.MethodPost)
	r.HandleFunc("/admin/songs/lazy/{id}/move-up", s.handleMove(model.QueueLazy, model.MoveUp)).Methods(http.MethodPost)
	r.HandleFunc("/admin/songs/lazy/{id}/move-down", s.handleMove(model.QueueLazy, model.MoveDown)).Methods(http.MethodPost)
	r.HandleFunc("/songs/{id}/reject", s.handleReject).Methods(http.MethodPost)
	r.HandleFunc("/songs/next", s.ok).Methods(http.MethodPost)
	r.HandleFunc("/admin/songs/restart", s.ok).Methods(http.MethodPost)
	r.HandleFunc("/admin/player/pause", s.ok).Methods(http.MethodPost)
	r.HandleFunc("/admin/player/resume", s.ok).Methods(http.MethodPost)

	r.HandleFunc("/admin/reports/table-payment-status", s.handleAccountReport).Methods(http.MethodGet)
	r.HandleFunc("/tables/{id}/payment-status", s.handleAccount).Methods(http.MethodGet)
	r.HandleFunc("/admin/payments", s.handlePayment).Methods(http.MethodPost)
	r.HandleFunc("/admin/tables/{id}/deactivate", s.ok).Methods(http.MethodPost)
	r.HandleFunc("/admin/tables/{id}/close-session", s.ok).Methods(http.MethodPost)

	r.HandleFunc("/products/", s.handleProducts).Methods(http.MethodGet)
	r.HandleFunc("/consumptions/order/cart/{id}", s.ok).Methods(http.MethodPost)
	r.HandleFunc("/consumptions/order/{id}", s.ok).Methods(http.MethodPost)

	r.HandleFunc("/ws", s.handleWS)

	s.httpSrv = httptest.NewServer(r)
	return s
}

// URL is the REST base URL.
func (s *Server) URL() string { return s.httpSrv.URL }

// WSURL is the push channel endpoint.
func (s *Server) WSURL() string {
	return "ws" + strings.TrimPrefix(s.httpSrv.URL, "http") + "/ws"
}

// Close shuts the fake down.
func (s *Server) Close() {
	s.mu.Lock()
	for conn := range s.conns {
		conn.Close()
	}
	s.conns = map[*websocket.Conn]bool{}
	s.mu.Unlock()
	s.httpSrv.Close()
}

// SetQueue scripts the snapshot the next fetch returns.
func (s *Server) SetQueue(snap model.QueueSnapshot) {
	s.mu.Lock()
	s.queue = snap
	s.mu.Unlock()
}

// Queue returns the current scripted snapshot.
func (s *Server) Queue() model.QueueSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queue
}

// SetAccount scripts one table account.
func (s *Server) SetAccount(account model.TableAccount) {
	s.mu.Lock()
	s.accounts[account.TableID] = account
	s.mu.Unlock()
}

// SetPersonal scripts a user's personal song list.
func (s *Server) SetPersonal(userID int64, songs []model.Song) {
	s.mu.Lock()
	s.personal[userID] = songs
	s.mu.Unlock()
}

// SetProducts scripts the catalog.
func (s *Server) SetProducts(products []model.Product) {
	s.mu.Lock()
	s.products = products
	s.mu.Unlock()
}

// FailNext makes the next request whose path contains substr fail with the
// given status.
func (s *Server) FailNext(substr string, status int) {
	s.mu.Lock()
	s.failPaths[substr] = status
	s.mu.Unlock()
}

// Calls returns every mutating request received so far.
func (s *Server) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Call(nil), s.calls...)
}

// CallCount counts received calls whose path contains substr.
func (s *Server) CallCount(substr string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.calls {
		if strings.Contains(c.Path, substr) {
			n++
		}
	}
	return n
}

// Push broadcasts one event to every connected channel.
func (s *Server) Push(event model.Event) {
	raw, err := json.Marshal(event)
	if err != nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for conn := range s.conns {
		conn.WriteMessage(websocket.TextMessage, raw)
	}
}

// DropConnections closes every push connection to simulate a network gap.
func (s *Server) DropConnections() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for conn := range s.conns {
		conn.Close()
		delete(s.conns, conn)
	}
}

// record logs mutating calls and applies scripted failures.
func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		if r.Method != http.MethodGet {
			s.calls = append(s.calls, Call{Method: r.Method, Path: r.URL.Path})
		}
		for substr, status := range s.failPaths {
			if strings.Contains(r.URL.Path, substr) {
				delete(s.failPaths, substr)
				s.mu.Unlock()
				w.WriteHeader(status)
				json.NewEncoder(w).Encode(map[string]string{"detail": "scripted failure"})
				return
			}
		}
		s.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) ok(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("{}"))
}

func (s *Server) writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func (s *Server) handleQueue(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	snap := s.queue
	s.mu.Unlock()
	s.writeJSON(w, snap)
}

func (s *Server) handlePersonal(w http.ResponseWriter, r *http.Request) {
	userID, _ := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	s.mu.Lock()
	songs := s.personal[userID]
	s.mu.Unlock()
	if songs == nil {
		songs = []model.Song{}
	}
	s.writeJSON(w, songs)
}

// handleApproveNext promotes the lazy head to now playing, the way the real
// backend does when the primary queue has no next song.
func (s *Server) handleApproveNext(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	if len(s.queue.LazyQueue) == 0 {
		s.mu.Unlock()
		w.WriteHeader(http.StatusConflict)
		json.NewEncoder(w).Encode(map[string]string{"detail": "lazy queue empty"})
		return
	}
	promoted := s.queue.LazyQueue[0]
	s.queue.LazyQueue = append([]model.Song(nil), s.queue.LazyQueue[1:]...)
	promoted.State = model.SongStateApproved
	if s.queue.NowPlaying == nil {
		s.queue.NowPlaying = &promoted
	} else {
		s.queue.Upcoming = append(s.queue.Upcoming, promoted)
	}
	s.mu.Unlock()
	s.writeJSON(w, promoted)
}

func (s *Server) handleRevertApprove(w http.ResponseWriter, r *http.Request) {
	songID, _ := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.queue.NowPlaying != nil && s.queue.NowPlaying.ID == songID {
		song := *s.queue.NowPlaying
		song.State = model.SongStatePendingLazy
		s.queue.NowPlaying = nil
		s.queue.LazyQueue = append([]model.Song{song}, s.queue.LazyQueue...)
		w.Write([]byte("{}"))
		return
	}
	w.WriteHeader(http.StatusNotFound)
	json.NewEncoder(w).Encode(map[string]string{"detail": "song is not the promoted one"})
}

func (s *Server) handleMove(kind model.QueueKind, dir model.MoveDirection) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		songID, _ := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
		s.mu.Lock()
		list := &s.queue.Upcoming
		if kind == model.QueueLazy {
			list = &s.queue.LazyQueue
		}
		for i := range *list {
			if (*list)[i].ID == songID {
				swap := i - 1
				if dir == model.MoveDown {
					swap = i + 1
				}
				if swap >= 0 && swap < len(*list) {
					(*list)[i], (*list)[swap] = (*list)[swap], (*list)[i]
				}
				break
			}
		}
		s.mu.Unlock()
		w.Write([]byte("{}"))
	}
}

func (s *Server) handleReject(w http.ResponseWriter, r *http.Request) {
	songID, _ := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	s.mu.Lock()
	for _, list := range []*[]model.Song{&s.queue.Upcoming, &s.queue.LazyQueue} {
		for i := range *list {
			if (*list)[i].ID == songID {
				*list = append((*list)[:i], (*list)[i+1:]...)
				break
			}
		}
	}
	s.mu.Unlock()
	w.Write([]byte("{}"))
}

func (s *Server) handleAccountReport(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	out := make([]model.TableAccount, 0, len(s.accounts))
	for _, a := range s.accounts {
		out = append(out, a)
	}
	s.mu.Unlock()
	s.writeJSON(w, out)
}

func (s *Server) handleAccount(w http.ResponseWriter, r *http.Request) {
	tableID, _ := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	s.mu.Lock()
	account, ok := s.accounts[tableID]
	s.mu.Unlock()
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"detail": "table not found"})
		return
	}
	s.writeJSON(w, account)
}

// handlePayment applies the payment to the table's scripted account.
func (s *Server) handlePayment(w http.ResponseWriter, r *http.Request) {
	var req struct {
		TableID int64           `json:"table_id"`
		Amount  decimal.Decimal `json:"amount"`
		Method  string          `json:"method"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		w.WriteHeader(http.StatusUnprocessableEntity)
		json.NewEncoder(w).Encode(map[string]string{"detail": "bad payment payload"})
		return
	}
	s.mu.Lock()
	account, ok := s.accounts[req.TableID]
	if ok {
		account.TotalPaid = account.TotalPaid.Add(req.Amount)
		account.BalanceDue = account.TotalConsumed.Sub(account.TotalPaid)
		account.Payments = append(account.Payments, model.PaymentLine{Amount: req.Amount, Method: req.Method})
		s.accounts[req.TableID] = account
	}
	s.mu.Unlock()
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"detail": "table not found"})
		return
	}
	w.Write([]byte("{}"))
}

func (s *Server) handleProducts(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	products := append([]model.Product(nil), s.products...)
	s.mu.Unlock()
	s.writeJSON(w, products)
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	s.mu.Lock()
	s.conns[conn] = true
	s.mu.Unlock()

	// Drain client frames until the connection dies.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				s.mu.Lock()
				delete(s.conns, conn)
				s.mu.Unlock()
				conn.Close()
				return
			}
		}
	}()
}
