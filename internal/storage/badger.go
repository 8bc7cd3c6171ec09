package storage

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dgraph-io/badger/v3"
	"github.com/prometheus/client_golang/prometheus"
)

// entryHeaderSize is the [createdAt:8][ttl:8] prefix of every stored value.
const entryHeaderSize = 16

// maxConflictRetries bounds retries of the expiry delete when a concurrent
// writer touches the same key.
const maxConflictRetries = 3

// BadgerStore implements Store on Badger v3. Expiry is decided from the
// header written with each value, using the store's clock.
type BadgerStore struct {
	db     *badger.DB
	cfg    BadgerConfig
	logger *slog.Logger
	now    func() time.Time

	lastGCTime atomic.Int64 // Unix milliseconds

	metricsLSMSize      prometheus.Gauge
	metricsValueLogSize prometheus.Gauge
	metricsLastGCTime   prometheus.Gauge
	metricsExpired      prometheus.Counter

	closeOnce sync.Once
	closed    atomic.Bool
	stopCh    chan struct{}
	wg        sync.WaitGroup
}

// BadgerOption configures a BadgerStore.
type BadgerOption func(*BadgerStore)

// WithBadgerClock overrides the clock used for expiry decisions.
func WithBadgerClock(now func() time.Time) BadgerOption {
	return func(s *BadgerStore) {
		s.now = now
	}
}

// OpenBadger opens (or creates) a Badger-backed store.
func OpenBadger(cfg BadgerConfig, logger *slog.Logger, opts ...BadgerOption) (*BadgerStore, error) {
	if cfg.Dir == "" && !cfg.InMemory {
		return nil, fmt.Errorf("badger: dir is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	bopts := badger.DefaultOptions(cfg.Dir)
	if cfg.InMemory {
		bopts = badger.DefaultOptions("").WithInMemory(true)
	}
	bopts.Logger = &badgerLogger{logger: logger}
	if cfg.CacheSize > 0 {
		bopts.BlockCacheSize = cfg.CacheSize
	}
	if cfg.ValueLogFileSize > 0 {
		bopts.ValueLogFileSize = cfg.ValueLogFileSize
	}
	if cfg.NumMemtables > 0 {
		bopts.NumMemtables = cfg.NumMemtables
	}
	bopts.SyncWrites = cfg.SyncWrites
	bopts.DetectConflicts = true

	db, err := badger.Open(bopts)
	if err != nil {
		return nil, fmt.Errorf("badger: open db: %w", err)
	}

	s := &BadgerStore{
		db:     db,
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
		stopCh: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}

	if !cfg.InMemory && cfg.GCInterval > 0 {
		s.wg.Add(1)
		go s.gcLoop()
	}

	logger.Info("badger store opened",
		"dir", cfg.Dir,
		"in_memory", cfg.InMemory,
		"cache_size", cfg.CacheSize,
		"gc_interval", cfg.GCInterval)

	return s, nil
}

// Store implements Store.
func (s *BadgerStore) Store(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if s.closed.Load() {
		return ErrClosed
	}
	if ttl <= 0 {
		return ErrInvalidTTL
	}
	buf := encodeEntry(s.now(), ttl, value)
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), buf)
	})
	if errors.Is(err, badger.ErrConflict) {
		// A concurrent expiry delete lost the race; last write wins.
		err = s.db.Update(func(txn *badger.Txn) error {
			return txn.Set([]byte(key), buf)
		})
	}
	return err
}

// Get implements Store.
func (s *BadgerStore) Get(_ context.Context, key string) ([]byte, error) {
	if s.closed.Load() {
		return nil, ErrClosed
	}

	var raw []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		raw, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	createdAt, ttl, value, err := decodeEntry(raw)
	if err != nil {
		return nil, fmt.Errorf("badger: key %q: %w", key, err)
	}
	if s.now().Sub(createdAt) < ttl {
		return value, nil
	}
	s.removeExpired(key, createdAt)
	return nil, ErrNotFound
}

// removeExpired deletes key if it still holds the entry created at
// createdAt. A newer write in between keeps its value.
func (s *BadgerStore) removeExpired(key string, createdAt time.Time) {
	for i := 0; i < maxConflictRetries; i++ {
		deleted := false
		err := s.db.Update(func(txn *badger.Txn) error {
			item, err := txn.Get([]byte(key))
			if err != nil {
				return err
			}
			raw, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			current, _, _, err := decodeEntry(raw)
			if err != nil || !current.Equal(createdAt) {
				return nil
			}
			deleted = true
			return txn.Delete([]byte(key))
		})
		if errors.Is(err, badger.ErrConflict) {
			continue
		}
		if err == nil && deleted && s.metricsExpired != nil {
			s.metricsExpired.Inc()
		}
		if err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
			s.logger.Warn("badger expiry delete failed", "key", key, "error", err)
		}
		return
	}
}

// Delete implements Store.
func (s *BadgerStore) Delete(_ context.Context, key string) error {
	if s.closed.Load() {
		return ErrClosed
	}
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
	if errors.Is(err, badger.ErrConflict) {
		err = s.db.Update(func(txn *badger.Txn) error {
			return txn.Delete([]byte(key))
		})
	}
	return err
}

// GC runs value log garbage collection until Badger reports nothing left
// to rewrite, and returns the number of files rewritten.
func (s *BadgerStore) GC() (int, error) {
	if s.cfg.InMemory {
		return 0, nil
	}
	rewritten := 0
	for {
		err := s.db.RunValueLogGC(s.cfg.GCThreshold)
		if errors.Is(err, badger.ErrNoRewrite) || errors.Is(err, badger.ErrRejected) {
			break
		}
		if err != nil {
			return rewritten, fmt.Errorf("badger: gc: %w", err)
		}
		rewritten++
	}
	s.lastGCTime.Store(time.Now().UnixMilli())
	return rewritten, nil
}

// Size returns the LSM and value log sizes in bytes.
func (s *BadgerStore) Size() (lsm, vlog int64) {
	return s.db.Size()
}

// Close implements Store.
func (s *BadgerStore) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		close(s.stopCh)
		s.wg.Wait()
		if cerr := s.db.Close(); cerr != nil {
			err = fmt.Errorf("badger: close db: %w", cerr)
		}
		s.logger.Info("badger store closed")
	})
	return err
}

// RegisterMetrics registers Badger size gauges and the expiry counter.
func (s *BadgerStore) RegisterMetrics(reg prometheus.Registerer) *BadgerStore {
	s.metricsLSMSize = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "seqlink",
		Subsystem: "badger",
		Name:      "lsm_size_bytes",
		Help:      "Badger LSM tree size in bytes",
	})
	s.metricsValueLogSize = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "seqlink",
		Subsystem: "badger",
		Name:      "value_log_size_bytes",
		Help:      "Badger value log size in bytes",
	})
	s.metricsLastGCTime = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "seqlink",
		Subsystem: "badger",
		Name:      "last_gc_timestamp_seconds",
		Help:      "Unix timestamp of the last value log GC run",
	})
	s.metricsExpired = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "seqlink",
		Subsystem: "badger",
		Name:      "expired_entries_total",
		Help:      "Entries removed lazily because their TTL elapsed",
	})
	reg.MustRegister(s.metricsLSMSize, s.metricsValueLogSize, s.metricsLastGCTime, s.metricsExpired)

	s.wg.Add(1)
	go s.metricsUpdateLoop()
	return s
}

func (s *BadgerStore) metricsUpdateLoop() {
	defer s.wg.Done()
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			lsm, vlog := s.db.Size()
			s.metricsLSMSize.Set(float64(lsm))
			s.metricsValueLogSize.Set(float64(vlog))
			if ts := s.lastGCTime.Load(); ts > 0 {
				s.metricsLastGCTime.Set(float64(ts) / 1000.0)
			}
		case <-s.stopCh:
			return
		}
	}
}

func (s *BadgerStore) gcLoop() {
	defer s.wg.Done()
	ticker := time.NewTicker(s.cfg.GCInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			start := time.Now()
			n, err := s.GC()
			if err != nil {
				s.logger.Error("badger gc failed", "error", err)
				continue
			}
			s.logger.Debug("badger gc completed", "files_rewritten", n, "elapsed", time.Since(start))
		case <-s.stopCh:
			return
		}
	}
}

func encodeEntry(createdAt time.Time, ttl time.Duration, value []byte) []byte {
	buf := make([]byte, entryHeaderSize+len(value))
	binary.BigEndian.PutUint64(buf[0:8], uint64(createdAt.UnixNano()))
	binary.BigEndian.PutUint64(buf[8:16], uint64(ttl))
	copy(buf[entryHeaderSize:], value)
	return buf
}

func decodeEntry(buf []byte) (time.Time, time.Duration, []byte, error) {
	if len(buf) < entryHeaderSize {
		return time.Time{}, 0, nil, errors.New("entry header truncated")
	}
	createdAt := time.Unix(0, int64(binary.BigEndian.Uint64(buf[0:8])))
	ttl := time.Duration(binary.BigEndian.Uint64(buf[8:16]))
	return createdAt, ttl, buf[entryHeaderSize:], nil
}

// badgerLogger adapts slog.Logger to Badger's Logger interface.
type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}
