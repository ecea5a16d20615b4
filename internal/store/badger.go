// Newsrec - Personalized News Recommendation and Retrieval Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsrec

package store

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"math/rand/v2"
	"sort"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/tomtom215/newsrec/internal/recommend"
)

// Key prefixes for BadgerDB storage.
const (
	itemKeyPrefix        = "item:"
	itemTimeKeyPrefix    = "item_time:"
	itemSeqKey           = "seq:item"
	userKeyPrefix        = "user:"
	prefKeyPrefix        = "pref:"
	scoreKeyPrefix       = "score:"
	scoreAtKeyPrefix     = "score_at:"
	interactionKeyPrefix = "interaction:"
	seenKeyPrefix        = "seen:"
	statsKeyPrefix       = "stats:"
)

// BadgerConfig holds BadgerDB options.
type BadgerConfig struct {
	// Path is the data directory. Ignored when InMemory is set.
	Path string `koanf:"path"`

	// InMemory keeps all data in memory.
	InMemory bool `koanf:"in_memory"`

	// SyncWrites fsyncs every commit.
	SyncWrites bool `koanf:"sync_writes"`

	// Compression enables Snappy block compression.
	Compression bool `koanf:"compression"`

	// GCRatio is the value log discard ratio used by RunGC.
	GCRatio float64 `koanf:"gc_ratio"`

	// ConflictRetries bounds how often Update reruns a transaction that
	// lost an optimistic concurrency race. Zero disables retries.
	ConflictRetries int `koanf:"conflict_retries"`
}

// DefaultBadgerConfig returns the default BadgerDB configuration.
func DefaultBadgerConfig() BadgerConfig {
	return BadgerConfig{
		Path:        "/data/newsrec",
		SyncWrites:  true,
		Compression: true,
		GCRatio:     0.5,

		ConflictRetries: 10,
	}
}

// BadgerRepository implements recommend.Repository on BadgerDB.
//
// Every View and Update maps onto one Badger transaction. Badger's
// optimistic concurrency control reports conflicting commits as
// badger.ErrConflict, in which case nothing from the transaction is
// written.
type BadgerRepository struct {
	db              *badger.DB
	gcRatio         float64
	conflictRetries int
	closed          atomic.Bool
	logger          zerolog.Logger
}

// OpenBadger opens (or creates) a BadgerDB-backed repository.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func OpenBadger(cfg BadgerConfig, logger zerolog.Logger) (*BadgerRepository, error) {
	opts := badger.DefaultOptions(cfg.Path)
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	}
	opts.SyncWrites = cfg.SyncWrites
	if cfg.Compression {
		opts.Compression = options.Snappy
	}

	// Reduce logging verbosity
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open BadgerDB: %w", err)
	}

	gcRatio := cfg.GCRatio
	if gcRatio <= 0 || gcRatio >= 1 {
		gcRatio = 0.5
	}

	return &BadgerRepository{
		db:              db,
		gcRatio:         gcRatio,
		conflictRetries: max(cfg.ConflictRetries, 0),
		logger:          logger.With().Str("component", "badger-store").Logger(),
	}, nil
}

// View runs fn in a read-only transaction.
func (r *BadgerRepository) View(ctx context.Context, fn func(tx recommend.Tx) error) error {
	if r.closed.Load() {
		return ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.db.View(func(txn *badger.Txn) error {
		return fn(&badgerTx{txn: txn})
	})
}

// Update runs fn in a read-write transaction and commits if fn and ctx are
// both still fine afterwards. A commit rejected with badger.ErrConflict
// reruns fn in a fresh transaction, up to ConflictRetries times, so fn must
// not keep state from an earlier attempt.
func (r *BadgerRepository) Update(ctx context.Context, fn func(tx recommend.Tx) error) error {
	if r.closed.Load() {
		return ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	retries := r.conflictRetries
	for attempt := 0; ; attempt++ {
		err := r.db.Update(func(txn *badger.Txn) error {
			if err := fn(&badgerTx{txn: txn, writable: true}); err != nil {
				return err
			}
			return ctx.Err()
		})
		if !errors.Is(err, badger.ErrConflict) || attempt >= retries {
			return err
		}

		r.logger.Debug().Int("attempt", attempt+1).Msg("Transaction conflict, retrying")
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(conflictBackoff(attempt)):
		}
	}
}

// conflictBackoff returns a jittered delay that grows linearly with attempt.
func conflictBackoff(attempt int) time.Duration {
	base := time.Duration(attempt+1) * 200 * time.Microsecond
	//nolint:gosec // G404: jitter does not need cryptographic randomness
	return base + time.Duration(rand.Int64N(int64(base)))
}

// RunGC reclaims value log space until Badger reports nothing to rewrite.
func (r *BadgerRepository) RunGC(ctx context.Context) error {
	if r.closed.Load() {
		return ErrClosed
	}
	runs := 0
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := r.db.RunValueLogGC(r.gcRatio)
		if errors.Is(err, badger.ErrNoRewrite) {
			break
		}
		if err != nil {
			return fmt.Errorf("run GC: %w", err)
		}
		runs++
	}
	r.logger.Debug().Int("rewrites", runs).Msg("Value log GC completed")
	return nil
}

// Backup writes a full backup stream of the database to w.
func (r *BadgerRepository) Backup(ctx context.Context, w io.Writer) error {
	if r.closed.Load() {
		return ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := r.db.Backup(w, 0); err != nil {
		return fmt.Errorf("backup: %w", err)
	}
	return nil
}

// Load replays a backup stream produced by Backup. The database should not
// already hold any of the stream's keys.
func (r *BadgerRepository) Load(ctx context.Context, rd io.Reader) error {
	if r.closed.Load() {
		return ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := r.db.Load(rd, 256); err != nil {
		return fmt.Errorf("load backup: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (r *BadgerRepository) Close() error {
	if !r.closed.CompareAndSwap(false, true) {
		return nil
	}
	return r.db.Close()
}

type badgerTx struct {
	txn      *badger.Txn
	writable bool
}

// Key encoding. Numeric ids are fixed-width big-endian so lexical key order
// matches numeric order.

func idBytes(id int64) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], uint64(id)^(1<<63))
	return b[:]
}

func idFromBytes(b []byte) int64 {
	return int64(binary.BigEndian.Uint64(b) ^ (1 << 63))
}

func key(prefix string, parts ...[]byte) []byte {
	k := []byte(prefix)
	for _, p := range parts {
		k = append(k, p...)
	}
	return k
}

func timeBytes(t time.Time) []byte {
	return idBytes(t.UnixNano())
}

// descScoreBytes encodes s so that ascending key order is descending score
// order.
func descScoreBytes(s float64) []byte {
	bits := math.Float64bits(s)
	if s >= 0 {
		bits ^= 1 << 63
	} else {
		bits = ^bits
	}
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], ^bits)
	return b[:]
}

func (tx *badgerTx) checkWritable() error {
	if !tx.writable {
		return ErrReadOnly
	}
	return nil
}

func (tx *badgerTx) getJSON(k []byte, v any) (bool, error) {
	item, err := tx.txn.Get(k)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, item.Value(func(val []byte) error {
		return json.Unmarshal(val, v)
	})
}

func (tx *badgerTx) setJSON(k []byte, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	return tx.txn.Set(k, data)
}

// scanPrefix calls fn for each key under prefix. Reverse walks from the
// last key backwards. Returning errStopScan ends the walk early.
func (tx *badgerTx) scanPrefix(prefix []byte, reverse, values bool, fn func(item *badger.Item) error) error {
	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = values
	opts.Reverse = reverse
	opts.Prefix = prefix
	it := tx.txn.NewIterator(opts)
	defer it.Close()

	seek := prefix
	if reverse {
		seek = append(append([]byte(nil), prefix...), reverseSeekSuffix...)
	}
	for it.Seek(seek); it.ValidForPrefix(prefix); it.Next() {
		if err := fn(it.Item()); err != nil {
			if errors.Is(err, errStopScan) {
				return nil
			}
			return err
		}
	}
	return nil
}

var errStopScan = errors.New("stop scan")

// reverseSeekSuffix sorts after every key suffix this store writes.
var reverseSeekSuffix = bytes.Repeat([]byte{0xFF}, 64)

// deletePrefix removes every key under prefix.
func (tx *badgerTx) deletePrefix(prefix []byte) error {
	var keys [][]byte
	err := tx.scanPrefix(prefix, false, false, func(item *badger.Item) error {
		keys = append(keys, item.KeyCopy(nil))
		return nil
	})
	if err != nil {
		return err
	}
	for _, k := range keys {
		if err := tx.txn.Delete(k); err != nil {
			return fmt.Errorf("delete key: %w", err)
		}
	}
	return nil
}

// Items

func (tx *badgerTx) GetItem(id int64) (recommend.Item, error) {
	var it recommend.Item
	found, err := tx.getJSON(key(itemKeyPrefix, idBytes(id)), &it)
	if err != nil {
		return recommend.Item{}, fmt.Errorf("get item %d: %w", id, err)
	}
	if !found {
		return recommend.Item{}, fmt.Errorf("item %d: %w", id, recommend.ErrNotFound)
	}
	return it, nil
}

func (tx *badgerTx) nextItemID() (int64, error) {
	var seq int64
	item, err := tx.txn.Get([]byte(itemSeqKey))
	switch {
	case errors.Is(err, badger.ErrKeyNotFound):
	case err != nil:
		return 0, fmt.Errorf("read item sequence: %w", err)
	default:
		err = item.Value(func(val []byte) error {
			seq, err = strconv.ParseInt(string(val), 10, 64)
			return err
		})
		if err != nil {
			return 0, fmt.Errorf("parse item sequence: %w", err)
		}
	}
	return seq + 1, nil
}

func (tx *badgerTx) bumpItemSeq(id int64) error {
	next, err := tx.nextItemID()
	if err != nil {
		return err
	}
	if id < next {
		return nil
	}
	return tx.txn.Set([]byte(itemSeqKey), []byte(strconv.FormatInt(id, 10)))
}

func (tx *badgerTx) CreateItem(item recommend.Item) (recommend.Item, error) {
	if err := tx.checkWritable(); err != nil {
		return recommend.Item{}, err
	}
	id, err := tx.nextItemID()
	if err != nil {
		return recommend.Item{}, err
	}
	item.ID = id
	if err := tx.PutItem(item); err != nil {
		return recommend.Item{}, err
	}
	return item, nil
}

func (tx *badgerTx) PutItem(item recommend.Item) error {
	if err := tx.checkWritable(); err != nil {
		return err
	}
	if item.ID <= 0 {
		return fmt.Errorf("%w: item id must be positive", recommend.ErrValidation)
	}

	var prev recommend.Item
	found, err := tx.getJSON(key(itemKeyPrefix, idBytes(item.ID)), &prev)
	if err != nil {
		return fmt.Errorf("get item %d: %w", item.ID, err)
	}
	if found && !prev.PublishedAt.Equal(item.PublishedAt) {
		if err := tx.txn.Delete(key(itemTimeKeyPrefix, timeBytes(prev.PublishedAt), idBytes(item.ID))); err != nil {
			return fmt.Errorf("delete time index: %w", err)
		}
	}

	if err := tx.setJSON(key(itemKeyPrefix, idBytes(item.ID)), item); err != nil {
		return fmt.Errorf("set item %d: %w", item.ID, err)
	}
	if err := tx.txn.Set(key(itemTimeKeyPrefix, timeBytes(item.PublishedAt), idBytes(item.ID)), nil); err != nil {
		return fmt.Errorf("set time index: %w", err)
	}
	return tx.bumpItemSeq(item.ID)
}

// itemIDsByTime walks the time index and returns ids newest first.
func (tx *badgerTx) itemIDsByTime(since time.Time, limit int, exclude recommend.ItemSet) ([]int64, error) {
	prefix := []byte(itemTimeKeyPrefix)
	var cutoff []byte
	if !since.IsZero() {
		cutoff = key(itemTimeKeyPrefix, timeBytes(since))
	}

	var ids []int64
	err := tx.scanPrefix(prefix, true, false, func(item *badger.Item) error {
		k := item.Key()
		if cutoff != nil && string(k[:len(cutoff)]) < string(cutoff) {
			return errStopScan
		}
		id := idFromBytes(k[len(prefix)+8:])
		if exclude.Has(id) {
			return nil
		}
		ids = append(ids, id)
		if limit > 0 && len(ids) >= limit {
			return errStopScan
		}
		return nil
	})
	return ids, err
}

func (tx *badgerTx) itemsByID(ids []int64) ([]recommend.Item, error) {
	out := make([]recommend.Item, 0, len(ids))
	for _, id := range ids {
		it, err := tx.GetItem(id)
		if errors.Is(err, recommend.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	recommend.SortByRecency(out)
	return out, nil
}

func (tx *badgerTx) ItemsSince(since time.Time, exclude recommend.ItemSet) ([]recommend.Item, error) {
	ids, err := tx.itemIDsByTime(since, 0, exclude)
	if err != nil {
		return nil, fmt.Errorf("scan items since %s: %w", since.Format(time.RFC3339), err)
	}
	return tx.itemsByID(ids)
}

func (tx *badgerTx) LatestItems(limit int, exclude recommend.ItemSet) ([]recommend.Item, error) {
	ids, err := tx.itemIDsByTime(time.Time{}, limit, exclude)
	if err != nil {
		return nil, fmt.Errorf("scan latest items: %w", err)
	}
	return tx.itemsByID(ids)
}

func (tx *badgerTx) AllItems() ([]recommend.Item, error) {
	var out []recommend.Item
	err := tx.scanPrefix([]byte(itemKeyPrefix), false, true, func(item *badger.Item) error {
		var it recommend.Item
		if err := item.Value(func(val []byte) error {
			return json.Unmarshal(val, &it)
		}); err != nil {
			return err
		}
		out = append(out, it)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan items: %w", err)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (tx *badgerTx) IncrementItemCounters(id int64, shown, reactions int64) error {
	if err := tx.checkWritable(); err != nil {
		return err
	}
	if shown < 0 || reactions < 0 {
		return fmt.Errorf("%w: counters only increase", recommend.ErrValidation)
	}
	it, err := tx.GetItem(id)
	if err != nil {
		return err
	}
	it.ShownCount += shown
	it.ReactionCount += reactions
	return tx.setJSON(key(itemKeyPrefix, idBytes(id)), it)
}

// Users

func (tx *badgerTx) GetUser(id int64) (recommend.User, error) {
	var u recommend.User
	found, err := tx.getJSON(key(userKeyPrefix, idBytes(id)), &u)
	if err != nil {
		return recommend.User{}, fmt.Errorf("get user %d: %w", id, err)
	}
	if !found {
		return recommend.User{}, fmt.Errorf("user %d: %w", id, recommend.ErrNotFound)
	}
	return u, nil
}

func (tx *badgerTx) PutUser(user recommend.User) error {
	if err := tx.checkWritable(); err != nil {
		return err
	}
	return tx.setJSON(key(userKeyPrefix, idBytes(user.ID)), user)
}

func (tx *badgerTx) ListUsers() ([]recommend.User, error) {
	var out []recommend.User
	err := tx.scanPrefix([]byte(userKeyPrefix), false, true, func(item *badger.Item) error {
		var u recommend.User
		if err := item.Value(func(val []byte) error {
			return json.Unmarshal(val, &u)
		}); err != nil {
			return err
		}
		out = append(out, u)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan users: %w", err)
	}
	return out, nil
}

// Scores

func (tx *badgerTx) ReplaceScores(userID int64, cands []recommend.ScoredCandidate, computedAt time.Time) error {
	if err := tx.checkWritable(); err != nil {
		return err
	}
	if err := tx.deletePrefix(key(scoreKeyPrefix, idBytes(userID))); err != nil {
		return fmt.Errorf("clear scores: %w", err)
	}
	for _, c := range cands {
		c.UserID = userID
		k := key(scoreKeyPrefix, idBytes(userID), descScoreBytes(c.Score), idBytes(c.ItemID))
		if err := tx.setJSON(k, c); err != nil {
			return fmt.Errorf("set score for item %d: %w", c.ItemID, err)
		}
	}
	return tx.setJSON(key(scoreAtKeyPrefix, idBytes(userID)), computedAt)
}

func (tx *badgerTx) DeleteScores(userID int64) error {
	if err := tx.checkWritable(); err != nil {
		return err
	}
	if err := tx.deletePrefix(key(scoreKeyPrefix, idBytes(userID))); err != nil {
		return fmt.Errorf("clear scores: %w", err)
	}
	err := tx.txn.Delete(key(scoreAtKeyPrefix, idBytes(userID)))
	if err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
		return fmt.Errorf("clear computed-at: %w", err)
	}
	return nil
}

func (tx *badgerTx) TopScores(userID int64, limit int) ([]recommend.ScoredCandidate, error) {
	var out []recommend.ScoredCandidate
	err := tx.scanPrefix(key(scoreKeyPrefix, idBytes(userID)), false, true, func(item *badger.Item) error {
		var c recommend.ScoredCandidate
		if err := item.Value(func(val []byte) error {
			return json.Unmarshal(val, &c)
		}); err != nil {
			return err
		}
		out = append(out, c)
		if limit > 0 && len(out) >= limit {
			return errStopScan
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan scores: %w", err)
	}
	return out, nil
}

func (tx *badgerTx) ScoresComputedAt(userID int64) (time.Time, bool, error) {
	var at time.Time
	found, err := tx.getJSON(key(scoreAtKeyPrefix, idBytes(userID)), &at)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("get computed-at: %w", err)
	}
	return at, found, nil
}

// Interactions

func (tx *badgerTx) AppendInteraction(rec recommend.Interaction) error {
	if err := tx.checkWritable(); err != nil {
		return err
	}
	k := key(interactionKeyPrefix, idBytes(rec.UserID), timeBytes(rec.CreatedAt), []byte(rec.ID))
	if err := tx.setJSON(k, rec); err != nil {
		return fmt.Errorf("set interaction: %w", err)
	}
	if err := tx.txn.Set(key(seenKeyPrefix, idBytes(rec.UserID), idBytes(rec.ItemID)), nil); err != nil {
		return fmt.Errorf("set seen: %w", err)
	}
	return nil
}

func (tx *badgerTx) SeenItems(userID int64) (recommend.ItemSet, error) {
	prefix := key(seenKeyPrefix, idBytes(userID))
	out := make(recommend.ItemSet)
	err := tx.scanPrefix(prefix, false, false, func(item *badger.Item) error {
		out[idFromBytes(item.Key()[len(prefix):])] = struct{}{}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan seen items: %w", err)
	}
	return out, nil
}

func (tx *badgerTx) Interactions(userID int64, limit int) ([]recommend.Interaction, error) {
	var out []recommend.Interaction
	err := tx.scanPrefix(key(interactionKeyPrefix, idBytes(userID)), true, true, func(item *badger.Item) error {
		var rec recommend.Interaction
		if err := item.Value(func(val []byte) error {
			return json.Unmarshal(val, &rec)
		}); err != nil {
			return err
		}
		out = append(out, rec)
		if limit > 0 && len(out) >= limit {
			return errStopScan
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan interactions: %w", err)
	}
	return out, nil
}

// Preferences

func (tx *badgerTx) Preferences(userID int64) (map[recommend.Category]recommend.PreferenceWeight, error) {
	out := make(map[recommend.Category]recommend.PreferenceWeight)
	err := tx.scanPrefix(key(prefKeyPrefix, idBytes(userID)), false, true, func(item *badger.Item) error {
		var pw recommend.PreferenceWeight
		if err := item.Value(func(val []byte) error {
			return json.Unmarshal(val, &pw)
		}); err != nil {
			return err
		}
		out[pw.Category] = pw
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan preferences: %w", err)
	}
	return out, nil
}

func (tx *badgerTx) UpsertPreference(pw recommend.PreferenceWeight) error {
	if err := tx.checkWritable(); err != nil {
		return err
	}
	return tx.setJSON(key(prefKeyPrefix, idBytes(pw.UserID), []byte(pw.Category)), pw)
}

func (tx *badgerTx) DeletePreferences(userID int64) error {
	if err := tx.checkWritable(); err != nil {
		return err
	}
	return tx.deletePrefix(key(prefKeyPrefix, idBytes(userID)))
}

// Stats

func (tx *badgerTx) GetStats(userID int64) (recommend.UserStats, error) {
	s := recommend.UserStats{UserID: userID}
	if _, err := tx.getJSON(key(statsKeyPrefix, idBytes(userID)), &s); err != nil {
		return recommend.UserStats{}, fmt.Errorf("get stats: %w", err)
	}
	return s, nil
}

func (tx *badgerTx) PutStats(stats recommend.UserStats) error {
	if err := tx.checkWritable(); err != nil {
		return err
	}
	return tx.setJSON(key(statsKeyPrefix, idBytes(stats.UserID)), stats)
}
