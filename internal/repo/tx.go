package repo

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"gorm.io/gorm"
)

// Transactor runs fn so that every store call made with the ctx it receives
// commits or rolls back together.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// NoTx is the transactor for the memory stores, whose operations are each
// atomic on their own.
type NoTx struct{}

func (NoTx) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type GormTransactor struct {
	DB         *gorm.DB
	MaxRetries int
}

func (t GormTransactor) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := txFrom(ctx); ok {
		return fn(ctx)
	}

	backoff := 50 * time.Millisecond
	for attempt := 0; ; attempt++ {
		err := runInTx(ctx, t.DB, fn)
		if err == nil || !IsRetryable(err) {
			return err
		}
		if attempt >= t.MaxRetries {
			return fmt.Errorf("max retries (%d) exceeded: %w", t.MaxRetries, err)
		}

		jitter := time.Duration(rand.Int63n(int64(backoff / 4)))
		select {
		case <-time.After(backoff + jitter):
		case <-ctx.Done():
			return ctx.Err()
		}
		backoff *= 2
	}
}

type txKey struct{}

func txFrom(ctx context.Context) (*gorm.DB, bool) {
	tx, ok := ctx.Value(txKey{}).(*gorm.DB)
	return tx, ok
}

// conn returns the transaction carried by ctx, or db bound to ctx.
func conn(ctx context.Context, db *gorm.DB) *gorm.DB {
	if tx, ok := txFrom(ctx); ok {
		return tx
	}
	return db.WithContext(ctx)
}

// runInTx joins the transaction already carried by ctx or opens a new one.
func runInTx(ctx context.Context, db *gorm.DB, fn func(ctx context.Context) error) error {
	if _, ok := txFrom(ctx); ok {
		return fn(ctx)
	}
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, txKey{}, tx))
	})
}

// lockTable takes a table lock that serialises id assignment on Postgres.
// SQLite already serialises writers.
func lockTable(tx *gorm.DB, table string) error {
	if tx.Dialector.Name() != "postgres" {
		return nil
	}
	if err := tx.Exec("LOCK TABLE " + table + " IN SHARE ROW EXCLUSIVE MODE").Error; err != nil {
		return fmt.Errorf("lock %s: %w", table, err)
	}
	return nil
}
