// Package state persists pipeline runs under a datadir: one gzipped NDJSON
// of classified records per run, and trace statistics in a bbolt DB.
//
// Opening a writable bbolt conn holds a file lock, which is what serializes
// competing writers; the pipeline core stays free of shared mutable state
// and this store is the explicit, synchronized home for "last analyzed".
package state

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"path/filepath"

	"go.etcd.io/bbolt"

	"github.com/strayward/stopd/aggregate"
	"github.com/strayward/stopd/params"
	"github.com/strayward/stopd/types/tracepoint"
)

type Store struct {
	DataDir string
	DB      *bbolt.DB
	Flat    *Flat
	logger  *slog.Logger
}

func NewStore(datadir string) (*Store, error) {
	datadir = params.ResolveDatadir(datadir)
	flat := NewFlatWithRoot(datadir)
	if err := flat.MkdirAll(); err != nil {
		return nil, err
	}
	db, err := bbolt.Open(filepath.Join(datadir, params.StateDBName), 0600, nil)
	if err != nil {
		return nil, err
	}
	return &Store{
		DataDir: datadir,
		DB:      db,
		Flat:    flat,
		logger:  slog.With("store", datadir),
	}, nil
}

func (s *Store) Close() error {
	return s.DB.Close()
}

// WriteRun stores one pipeline run: records as gzipped NDJSON GeoJSON
// features under datasets/<id>/, stats under the runs bucket and as "last".
func (s *Store) WriteRun(id string, records []tracepoint.ClassifiedRecord, stats []aggregate.TraceStatistics) error {
	flat := NewFlatWithRoot(s.DataDir).Joining(params.DatasetsDir, id)
	wr, err := flat.NamedGZWriter(params.RecordsGZFileName)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(wr)
	for i := range records {
		if err := enc.Encode(records[i].GeoJSON()); err != nil {
			wr.Close()
			return err
		}
	}
	if err := wr.Close(); err != nil {
		return err
	}

	statsJSON, err := json.Marshal(stats)
	if err != nil {
		return err
	}
	err = s.DB.Update(func(tx *bbolt.Tx) error {
		runs, err := tx.CreateBucketIfNotExists(params.RunsBucket)
		if err != nil {
			return err
		}
		if err := runs.Put([]byte(id), statsJSON); err != nil {
			return err
		}
		last, err := tx.CreateBucketIfNotExists(params.StatsBucket)
		if err != nil {
			return err
		}
		return last.Put([]byte("last"), statsJSON)
	})
	if err != nil {
		return err
	}
	s.logger.Info("Stored run", "id", id, "records", len(records), "traces", len(stats))
	return nil
}

// RunStats reads back the statistics of a stored run.
func (s *Store) RunStats(id string) ([]aggregate.TraceStatistics, error) {
	return s.readStats(params.RunsBucket, []byte(id))
}

// LastStats reads back the most recently stored run's statistics.
func (s *Store) LastStats() ([]aggregate.TraceStatistics, error) {
	return s.readStats(params.StatsBucket, []byte("last"))
}

func (s *Store) readStats(bucket, key []byte) ([]aggregate.TraceStatistics, error) {
	var stats []aggregate.TraceStatistics
	err := s.DB.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucket)
		if b == nil {
			return fmt.Errorf("no runs stored")
		}
		v := b.Get(key)
		if v == nil {
			return fmt.Errorf("no run %q", key)
		}
		return json.Unmarshal(v, &stats)
	})
	return stats, err
}
