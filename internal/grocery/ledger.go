package grocery

import (
	"encoding/json"
	"fmt"
	"time"

	"go.etcd.io/bbolt"
)

const (
	runsBucketName      = "runs"
	inventoryBucketName = "inventory"
)

// latestInventoryKey is the single key under which the current snapshot
// lives; every run overwrites it.
const latestInventoryKey = "latest"

// Ledger defines the interface for run-history operations
type Ledger interface {
	// SaveRun records a completed pipeline run
	SaveRun(record *RunRecord) error

	// GetRun retrieves a run record by ID
	GetRun(id string) (*RunRecord, error)

	// ListRuns returns all recorded runs
	ListRuns() ([]*RunRecord, error)

	// SaveInventory stores the latest inventory snapshot
	SaveInventory(snapshot *InventorySnapshot) error

	// GetInventory retrieves the latest inventory snapshot
	GetInventory() (*InventorySnapshot, error)

	// Close closes the underlying database
	Close() error
}

// BoltLedger implements the Ledger interface using BoltDB
type BoltLedger struct {
	db *bbolt.DB
}

// NewBoltLedger opens (or creates) the ledger database at path
func NewBoltLedger(path string) (*BoltLedger, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening boltdb: %w", err)
	}

	// Create buckets if they don't exist
	err = db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(runsBucketName)); err != nil {
			return err
		}
		if _, err := tx.CreateBucketIfNotExists([]byte(inventoryBucketName)); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating buckets: %w", err)
	}

	return &BoltLedger{db: db}, nil
}

// SaveRun records a completed pipeline run
func (b *BoltLedger) SaveRun(record *RunRecord) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(runsBucketName))
		data, err := json.Marshal(record)
		if err != nil {
			return fmt.Errorf("marshaling run record: %w", err)
		}
		return bucket.Put([]byte(record.ID), data)
	})
}

// GetRun retrieves a run record by ID
func (b *BoltLedger) GetRun(id string) (*RunRecord, error) {
	var record *RunRecord
	err := b.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(runsBucketName))
		data := bucket.Get([]byte(id))
		if data == nil {
			return fmt.Errorf("run not found: %s", id)
		}
		return json.Unmarshal(data, &record)
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}

// ListRuns returns all recorded runs
func (b *BoltLedger) ListRuns() ([]*RunRecord, error) {
	records := make([]*RunRecord, 0)
	err := b.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(runsBucketName))
		return bucket.ForEach(func(k, v []byte) error {
			var record RunRecord
			if err := json.Unmarshal(v, &record); err != nil {
				return fmt.Errorf("unmarshaling run record: %w", err)
			}
			records = append(records, &record)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

// SaveInventory stores the latest inventory snapshot
func (b *BoltLedger) SaveInventory(snapshot *InventorySnapshot) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(inventoryBucketName))
		data, err := json.Marshal(snapshot)
		if err != nil {
			return fmt.Errorf("marshaling inventory snapshot: %w", err)
		}
		return bucket.Put([]byte(latestInventoryKey), data)
	})
}

// GetInventory retrieves the latest inventory snapshot
func (b *BoltLedger) GetInventory() (*InventorySnapshot, error) {
	var snapshot *InventorySnapshot
	err := b.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(inventoryBucketName))
		data := bucket.Get([]byte(latestInventoryKey))
		if data == nil {
			return fmt.Errorf("no inventory snapshot recorded")
		}
		return json.Unmarshal(data, &snapshot)
	})
	if err != nil {
		return nil, err
	}
	return snapshot, nil
}

// Close closes the underlying database
func (b *BoltLedger) Close() error {
	return b.db.Close()
}
