// Package live owns the single real-time position feed. At most one
// connection exists at a time: connecting again tears the old one down
// first. Callers read boat positions from a snapshot that never blocks.
package live

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jasonlvhit/gocron"
	log "github.com/sirupsen/logrus"
)

// Config identifies the external feed. The wire protocol beyond the
// position event below is the feed provider's contract.
type Config struct {
	Endpoint string `json:"endpoint"`
	Session  string `json:"session"`
}

// Position is the latest known fix for one tracked boat.
type Position struct {
	ID      string  `json:"id"`
	Name    string  `json:"name,omitempty"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
	Speed   float64 `json:"speed,omitempty"`
	Heading float64 `json:"heading,omitempty"`
	Time    int64   `json:"time"` // epoch millis
}

// Notifier receives feed failure alerts. Satisfied by xmpp.Notifier.
type Notifier interface {
	Send(message string) error
}

const defaultStaleAfter = 5 * time.Minute

// Adapter owns the feed connection and the position snapshot. Single
// writer: the reader goroutine. Snapshot reads never block.
// connectMu serializes connection replacement end to end, mu guards the
// shared state.
type Adapter struct {
	mu         sync.RWMutex
	connectMu  sync.Mutex
	conn       *websocket.Conn
	config     Config
	positions  map[string]Position
	notifier   Notifier
	staleAfter time.Duration
}

func NewAdapter(notifier Notifier) *Adapter {
	a := &Adapter{
		positions:  map[string]Position{},
		notifier:   notifier,
		staleAfter: defaultStaleAfter,
	}

	s := gocron.NewScheduler()
	job := s.Every(30).Seconds()
	job.Do(a.sweepStale)
	go s.Start()

	return a
}

// Connect replaces any active connection with a new one. Teardown, dial
// and swap happen under connectMu, so racing callers are serialized and
// two feeds never run concurrently.
func (a *Adapter) Connect(cfg Config) error {
	if cfg.Endpoint == "" {
		return fmt.Errorf("live feed endpoint is required")
	}

	a.connectMu.Lock()
	defer a.connectMu.Unlock()

	a.closeCurrent()

	conn, _, err := websocket.DefaultDialer.Dial(cfg.Endpoint+"?session="+cfg.Session, nil)
	if err != nil {
		return fmt.Errorf("connecting to live feed '%s': %w", cfg.Endpoint, err)
	}

	a.mu.Lock()
	a.conn = conn
	a.config = cfg
	a.positions = map[string]Position{}
	a.mu.Unlock()

	log.Infof("Connected to live feed '%s' session '%s'", cfg.Endpoint, cfg.Session)
	go a.readLoop(conn)
	return nil
}

// Disconnect closes the active connection, if any.
func (a *Adapter) Disconnect() {
	a.connectMu.Lock()
	defer a.connectMu.Unlock()
	a.closeCurrent()
}

func (a *Adapter) closeCurrent() {
	a.mu.Lock()
	conn := a.conn
	a.conn = nil
	a.mu.Unlock()

	if conn != nil {
		conn.Close()
		log.Info("Disconnected from live feed")
	}
}

// Connected reports whether a feed is currently attached.
func (a *Adapter) Connected() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.conn != nil
}

// Positions returns the most recently received state, sorted by boat ID.
// It never blocks on the feed.
func (a *Adapter) Positions() []Position {
	a.mu.RLock()
	out := make([]Position, 0, len(a.positions))
	for _, p := range a.positions {
		out = append(out, p)
	}
	a.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (a *Adapter) readLoop(conn *websocket.Conn) {
	for {
		var p Position
		if err := conn.ReadJSON(&p); err != nil {
			a.mu.Lock()
			current := a.conn == conn
			if current {
				a.conn = nil
			}
			a.mu.Unlock()

			// A read error after Disconnect is just the close racing us.
			if current {
				log.WithError(err).Error("Live feed read failed")
				if a.notifier != nil {
					a.notifier.Send(fmt.Sprintf("live feed '%s' lost: %v", a.config.Endpoint, err))
				}
			}
			return
		}
		a.update(conn, p)
	}
}

// update stores the fix unless its source connection has been replaced:
// a reader that decoded one last message during teardown must not leak a
// boat into the next session's snapshot.
func (a *Adapter) update(conn *websocket.Conn, p Position) {
	if p.ID == "" {
		return
	}
	if p.Time == 0 {
		p.Time = time.Now().UnixMilli()
	}
	a.mu.Lock()
	if a.conn == conn {
		a.positions[p.ID] = p
	}
	a.mu.Unlock()
}

func (a *Adapter) sweepStale() {
	cutoff := time.Now().Add(-a.staleAfter).UnixMilli()

	a.mu.Lock()
	for id, p := range a.positions {
		if p.Time < cutoff {
			delete(a.positions, id)
			log.Debugf("Dropped stale position for '%s'", id)
		}
	}
	a.mu.Unlock()
}
