package transaction

import (
	"encoding/json"
	"fmt"
	"time"

	"go.etcd.io/bbolt"
)

const (
	transactionBucket   = "transactions"
	operationCodeBucket = "operation_codes"
)

// DB defines the interface for the transaction log.
type DB interface {
	// SaveTransaction appends a transaction. If the transaction carries an
	// operation code, the code is indexed for duplicate detection.
	SaveTransaction(tx *Transaction) error

	// HasOperationCode reports whether a code was already recorded.
	HasOperationCode(code string) (bool, error)

	// ListByPhone returns all transactions for a customer phone, newest first.
	ListByPhone(phone string) ([]*Transaction, error)

	// Close closes the database connection.
	Close() error
}

// BoltDB implements the DB interface using BoltDB.
type BoltDB struct {
	db *bbolt.DB
}

// NewBoltDB creates a new BoltDB instance.
func NewBoltDB(path string) (*BoltDB, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening boltdb: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(transactionBucket)); err != nil {
			return err
		}
		if _, err := tx.CreateBucketIfNotExists([]byte(operationCodeBucket)); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating buckets: %w", err)
	}

	return &BoltDB{db: db}, nil
}

// SaveTransaction appends a transaction and indexes its operation code.
func (b *BoltDB) SaveTransaction(t *Transaction) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(transactionBucket))
		seq, err := bucket.NextSequence()
		if err != nil {
			return fmt.Errorf("allocating sequence: %w", err)
		}
		if t.ID == "" {
			// Zero-padded so byte order matches insertion order.
			t.ID = fmt.Sprintf("%020d", seq)
		}

		data, err := json.Marshal(t)
		if err != nil {
			return fmt.Errorf("marshaling transaction: %w", err)
		}
		if err := bucket.Put([]byte(t.ID), data); err != nil {
			return err
		}

		if t.OperationCode != "" {
			codes := tx.Bucket([]byte(operationCodeBucket))
			if err := codes.Put([]byte(t.OperationCode), []byte(t.ID)); err != nil {
				return err
			}
		}
		return nil
	})
}

// HasOperationCode reports whether a code was already recorded. Empty codes
// are never duplicates.
func (b *BoltDB) HasOperationCode(code string) (bool, error) {
	if code == "" {
		return false, nil
	}

	var found bool
	err := b.db.View(func(tx *bbolt.Tx) error {
		codes := tx.Bucket([]byte(operationCodeBucket))
		found = codes.Get([]byte(code)) != nil
		return nil
	})
	if err != nil {
		return false, err
	}
	return found, nil
}

// ListByPhone returns all transactions for a customer phone, newest first.
func (b *BoltDB) ListByPhone(phone string) ([]*Transaction, error) {
	transactions := make([]*Transaction, 0)
	err := b.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(transactionBucket))
		cursor := bucket.Cursor()
		for k, v := cursor.Last(); k != nil; k, v = cursor.Prev() {
			var t Transaction
			if err := json.Unmarshal(v, &t); err != nil {
				return fmt.Errorf("unmarshaling transaction: %w", err)
			}
			if t.CustomerPhone == phone {
				transactions = append(transactions, &t)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return transactions, nil
}

// Close closes the database connection.
func (b *BoltDB) Close() error {
	return b.db.Close()
}
