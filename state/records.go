package state

import (
	"encoding/json"
	"maps"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/pjy612/ManifestAutoUpdate-bak/domain"
)

// AccountRecord is the persisted bookkeeping of one account.
type AccountRecord struct {
	// Enabled is cleared when the account can never be used again. The engine
	// never sets it back.
	Enabled bool `json:"enable"`

	// Update is the epoch second of the last pass that found nothing new.
	Update int64 `json:"update"`

	// Apps lists the applications the account was seen to own.
	Apps []domain.AppID `json:"app"`
}

// UnmarshalJSON treats a missing "enable" key as enabled.
func (r *AccountRecord) UnmarshalJSON(data []byte) error {
	type plain AccountRecord
	p := plain{Enabled: true}
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*r = AccountRecord(p)
	return nil
}

// DepotIndex maps each depot to the last captured manifest.
type DepotIndex struct {
	mu sync.Mutex
	m  map[domain.DepotID]domain.ManifestGID
}

func newDepotIndex(m map[domain.DepotID]domain.ManifestGID) *DepotIndex {
	if m == nil {
		m = make(map[domain.DepotID]domain.ManifestGID)
	}
	return &DepotIndex{m: m}
}

// Get returns the last captured manifest of depot.
func (d *DepotIndex) Get(depot domain.DepotID) (domain.ManifestGID, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	gid, ok := d.m[depot]
	return gid, ok
}

// Set records gid as the last captured manifest of depot.
func (d *DepotIndex) Set(depot domain.DepotID, gid domain.ManifestGID) {
	d.mu.Lock()
	d.m[depot] = gid
	d.mu.Unlock()
}

// Len returns the number of depots.
func (d *DepotIndex) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.m)
}

// Snapshot returns a copy of the index.
func (d *DepotIndex) Snapshot() map[domain.DepotID]domain.ManifestGID {
	d.mu.Lock()
	defer d.mu.Unlock()
	return maps.Clone(d.m)
}

// AccountBook holds the records of every account seen so far.
type AccountBook struct {
	mu sync.Mutex
	m  map[string]*AccountRecord
}

func newAccountBook(m map[string]*AccountRecord) *AccountBook {
	if m == nil {
		m = make(map[string]*AccountRecord)
	}
	return &AccountBook{m: m}
}

// Ensure returns a copy of the record of user, creating an enabled record
// with no apps when the user is new.
func (b *AccountBook) Ensure(user string) AccountRecord {
	b.mu.Lock()
	defer b.mu.Unlock()
	return copyRecord(b.ensure(user))
}

// Get returns a copy of the record of user.
func (b *AccountBook) Get(user string) (AccountRecord, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	r, ok := b.m[user]
	if !ok {
		return AccountRecord{}, false
	}
	return copyRecord(r), true
}

// Disable permanently clears the enabled flag of user.
func (b *AccountBook) Disable(user string) {
	b.mu.Lock()
	b.ensure(user).Enabled = false
	b.mu.Unlock()
}

// Touch sets the update time of user.
func (b *AccountBook) Touch(user string, at time.Time) {
	b.mu.Lock()
	b.ensure(user).Update = at.Unix()
	b.mu.Unlock()
}

// AddApp adds app to the owned set of user. It reports whether the set changed.
func (b *AccountBook) AddApp(user string, app domain.AppID) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.addApp(user, app)
}

// Users returns the known user names in order.
func (b *AccountBook) Users() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	users := slices.Collect(maps.Keys(b.m))
	sort.Strings(users)
	return users
}

// Snapshot returns a deep copy of the book.
func (b *AccountBook) Snapshot() map[string]AccountRecord {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make(map[string]AccountRecord, len(b.m))
	for u, r := range b.m {
		out[u] = copyRecord(r)
	}
	return out
}

func (b *AccountBook) ensure(user string) *AccountRecord {
	r, ok := b.m[user]
	if !ok {
		r = &AccountRecord{Enabled: true, Apps: []domain.AppID{}}
		b.m[user] = r
	}
	if r.Apps == nil {
		r.Apps = []domain.AppID{}
	}
	return r
}

func (b *AccountBook) addApp(user string, app domain.AppID) bool {
	r := b.ensure(user)
	if slices.Contains(r.Apps, app) {
		return false
	}
	r.Apps = append(r.Apps, app)
	return true
}

func copyRecord(r *AccountRecord) AccountRecord {
	out := *r
	out.Apps = slices.Clone(r.Apps)
	if out.Apps == nil {
		out.Apps = []domain.AppID{}
	}
	return out
}
