// Package console is the thin render/interaction layer: it subscribes to the
// stores, prints their state, and turns terminal input into store and
// gateway calls. No queue, tab or cart rule lives here.
package console

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"QRKara/gateway"
	"QRKara/model"
)

// Notify prints a transient message line.
func Notify(message string) {
	fmt.Printf("** %s\n", message)
}

// unavailable reports failures that degrade to a placeholder instead of an
// error line: the remote module is unreachable or missing, not misused.
// Validation and method rejections still surface verbatim.
func unavailable(err error) bool {
	apiErr, ok := gateway.AsAPIError(err)
	if !ok {
		return false
	}
	switch apiErr.Kind {
	case gateway.KindNotFound, gateway.KindServer, gateway.KindNetwork:
		return true
	}
	return false
}

// stdinConfirmer asks a yes/no question on the terminal.
type stdinConfirmer struct {
	reader *bufio.Reader
}

func newStdinConfirmer() *stdinConfirmer {
	return &stdinConfirmer{reader: bufio.NewReader(os.Stdin)}
}

// Confirm implements reconcile.Confirmer.
func (c *stdinConfirmer) Confirm(message string) bool {
	fmt.Printf("%s [y/N]: ", message)
	line, err := c.reader.ReadString('\n')
	if err != nil {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}

// ReactionFeed keeps the ephemeral reactions currently on screen. Entries
// expire on their own; nothing else in the system reads them.
type ReactionFeed struct {
	mu      sync.Mutex
	entries []reactionEntry
	ttl     time.Duration
}

type reactionEntry struct {
	payload model.ReactionPayload
	expires time.Time
}

// NewReactionFeed creates a feed whose entries live for ttl.
func NewReactionFeed(ttl time.Duration) *ReactionFeed {
	if ttl <= 0 {
		ttl = 5 * time.Second
	}
	return &ReactionFeed{ttl: ttl}
}

// Push adds a reaction and drops anything expired.
func (f *ReactionFeed) Push(r model.ReactionPayload) {
	f.mu.Lock()
	defer f.mu.Unlock()
	now := time.Now()
	f.prune(now)
	f.entries = append(f.entries, reactionEntry{payload: r, expires: now.Add(f.ttl)})
}

// Active returns the reactions still on screen.
func (f *ReactionFeed) Active() []model.ReactionPayload {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prune(time.Now())
	out := make([]model.ReactionPayload, len(f.entries))
	for i, e := range f.entries {
		out[i] = e.payload
	}
	return out
}

// prune must be called with the lock held.
func (f *ReactionFeed) prune(now time.Time) {
	kept := f.entries[:0]
	for _, e := range f.entries {
		if e.expires.After(now) {
			kept = append(kept, e)
		}
	}
	f.entries = kept
}

// renderQueue prints the queue the way the two surfaces split it: position 0
// with playback controls, position 1 locked, the rest reorderable.
func renderQueue(snap model.QueueSnapshot, playing bool) {
	if snap.NowPlaying != nil {
		state := "playing"
		if !playing {
			state = "paused"
		}
		fmt.Printf("NOW PLAYING [%s]  %s  (by %s)\n", state, snap.NowPlaying.Title, snap.NowPlaying.SubmittedBy())
	} else {
		fmt.Println("NOW PLAYING  (idle)")
	}
	for i, s := range snap.Upcoming {
		lock := ""
		if i == 0 {
			lock = "  [next up, locked]"
		}
		fmt.Printf("  #%d %s (by %s)%s\n", i+1, s.Title, s.SubmittedBy(), lock)
	}
	if len(snap.LazyQueue) > 0 {
		fmt.Println("WAITING FOR TURN:")
		for i, s := range snap.LazyQueue {
			fmt.Printf("  ~%d %s (by %s)\n", i+1, s.Title, s.SubmittedBy())
		}
	}
}
