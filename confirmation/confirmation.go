// Package confirmation holds the short-lived map of unconfirmed tasks,
// keyed by a random code mailed to the submitter.
package confirmation

import (
	"crypto/rand"
	"fmt"
	"sync"
	"time"

	"github.com/npsgd-project/npsgd/task"
)

const codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
const codeLength = 16

// Entry is one pending confirmation.
type Entry struct {
	Code      string
	Task      *task.Task
	CreatedAt time.Time
	ExpiresAt time.Time
}

// ErrDuplicateCode is returned by Put when the code already exists.
var ErrDuplicateCode = fmt.Errorf("confirmation: duplicate code")

// Map is the confirmation map: code -> entry, guarded by a single mutex as
// the invariants (uniqueness, expiry sweep) all act across the whole map.
// confirmed remembers codes already consumed by a successful confirm, so a
// repeated GET on the same code can be told apart from one that never
// existed.
type Map struct {
	mu        sync.Mutex
	entries   map[string]*Entry
	confirmed map[string]struct{}
	ttl       time.Duration
}

// New returns an empty confirmation map whose entries expire after ttl.
func New(ttl time.Duration) *Map {
	return &Map{
		entries:   make(map[string]*Entry),
		confirmed: make(map[string]struct{}),
		ttl:       ttl,
	}
}

// GenerateCode returns a fresh 16-char alphanumeric code; it does not check
// for collisions against any particular map — Put regenerates on a
// collision itself.
func GenerateCode() string {
	buf := make([]byte, codeLength)
	if _, err := rand.Read(buf); err != nil {
		panic("confirmation: crypto/rand unavailable: " + err.Error())
	}
	out := make([]byte, codeLength)
	for i, b := range buf {
		out[i] = codeAlphabet[int(b)%len(codeAlphabet)]
	}
	return string(out)
}

// Put inserts t under a freshly generated code, retrying on collision, and
// returns the code used.
func (m *Map) Put(t *task.Task, now time.Time) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	for {
		code := GenerateCode()
		if _, exists := m.entries[code]; exists {
			continue
		}
		m.entries[code] = &Entry{Code: code, Task: t, CreatedAt: now, ExpiresAt: now.Add(m.ttl)}
		return code
	}
}

// PutCode inserts t under an explicit code, failing with ErrDuplicateCode if
// already present. Used by persistence reload, where the code is already
// known and must not be regenerated.
func (m *Map) PutCode(code string, t *task.Task, createdAt, expiresAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.entries[code]; exists {
		return ErrDuplicateCode
	}
	m.entries[code] = &Entry{Code: code, Task: t, CreatedAt: createdAt, ExpiresAt: expiresAt}
	return nil
}

// Outcome classifies the result of Confirm.
type Outcome int

const (
	Confirmed Outcome = iota
	AlreadyConfirmed
	NotFound
)

// Confirm takes the entry for code, if present and unexpired, marks it
// confirmed and returns it for the caller to move into pending. If code was
// confirmed by an earlier call it reports AlreadyConfirmed instead of
// re-delivering the task. An expired or unknown code reports NotFound.
func (m *Map) Confirm(code string, now time.Time) (*Entry, Outcome) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.entries[code]; ok {
		delete(m.entries, code)
		if !now.Before(e.ExpiresAt) {
			return nil, NotFound
		}
		m.confirmed[code] = struct{}{}
		return e, Confirmed
	}
	if _, ok := m.confirmed[code]; ok {
		return nil, AlreadyConfirmed
	}
	return nil, NotFound
}

// ExpireStale removes every entry whose ExpiresAt is at or before now,
// returning how many were removed. Called at the top of every confirm
// request per the confirmation-expiry rule.
func (m *Map) ExpireStale(now time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	removed := 0
	for code, e := range m.entries {
		if !now.Before(e.ExpiresAt) {
			delete(m.entries, code)
			removed++
		}
	}
	return removed
}

// Entries returns a snapshot slice of all live entries, used by
// persistence to build a durable snapshot.
func (m *Map) Entries() []*Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*Entry, 0, len(m.entries))
	for _, e := range m.entries {
		out = append(out, e)
	}
	return out
}

// Len reports the number of live entries.
func (m *Map) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}
