package results

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/dgraph-io/badger/v4"
)

// StoreConfig configures a Store.
type StoreConfig struct {
	// Path is the database directory. Ignored when InMemory is set.
	Path string

	InMemory   bool
	SyncWrites bool

	// Logger receives badger's own log output. Nil silences it.
	Logger *slog.Logger
}

// Store persists results in badger, keyed by run id and sequence number.
type Store struct {
	db  *badger.DB
	seq *badger.Sequence
}

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
	l.logger.Info(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

// OpenStore opens or creates a result store.
func OpenStore(cfg StoreConfig) (*Store, error) {
	if !cfg.InMemory && cfg.Path == "" {
		return nil, errors.New("path is required for a persistent store")
	}

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(cfg.Path, 0750); err != nil {
			return nil, fmt.Errorf("create store directory %s: %w", cfg.Path, err)
		}
		opts = badger.DefaultOptions(cfg.Path)
	}
	opts = opts.WithSyncWrites(cfg.SyncWrites).WithNumVersionsToKeep(1)
	if cfg.Logger != nil {
		opts = opts.WithLogger(&badgerLogger{logger: cfg.Logger})
	} else {
		opts = opts.WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open result store: %w", err)
	}
	seq, err := db.GetSequence([]byte("seq"), 100)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("result sequence: %w", err)
	}
	return &Store{db: db, seq: seq}, nil
}

// OpenInMemoryStore opens a store that lives only as long as the process.
func OpenInMemoryStore() (*Store, error) {
	return OpenStore(StoreConfig{InMemory: true})
}

func runPrefix(runID string) []byte {
	return []byte("run/" + runID + "/")
}

// Save appends r under its run id.
func (s *Store) Save(r Result) error {
	if r.RunID == "" {
		return errors.New("result has no run id")
	}
	n, err := s.seq.Next()
	if err != nil {
		return fmt.Errorf("next result id: %w", err)
	}
	value, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	key := fmt.Appendf(runPrefix(r.RunID), "%016x", n)
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, value)
	})
}

// List returns the results saved for runID in insertion order.
func (s *Store) List(runID string) ([]Result, error) {
	var out []Result
	prefix := runPrefix(runID)
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var r Result
				if err := json.Unmarshal(val, &r); err != nil {
					return err
				}
				out = append(out, r)
				return nil
			})
			if err != nil {
				return fmt.Errorf("decode result %s: %w", it.Item().Key(), err)
			}
		}
		return nil
	})
	return out, err
}

// Runs returns the ids of all runs with saved results.
func (s *Store) Runs() ([]string, error) {
	var runs []string
	prefix := []byte("run/")
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		last := ""
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			key := string(it.Item().Key()[len(prefix):])
			id := key[:len(key)-17]
			if id != last {
				runs = append(runs, id)
				last = id
			}
		}
		return nil
	})
	return runs, err
}

// Close releases the sequence and closes the database.
func (s *Store) Close() error {
	if err := s.seq.Release(); err != nil {
		s.db.Close()
		return fmt.Errorf("release sequence: %w", err)
	}
	return s.db.Close()
}
