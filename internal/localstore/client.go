package localstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// entry is one persisted key/value pair. Values are opaque strings; callers
// decide the encoding (the cart stores a JSON array, the token a plain string).
type entry struct {
	Key   string `gorm:"primaryKey;column:key"`
	Value string `gorm:"column:value;not null"`
}

func (entry) TableName() string { return "entries" }

// Client is the durable local key/value store backing the cart and the auth
// token. One SQLite file per profile, created on first use.
type Client struct {
	conn *gorm.DB
}

// New opens (and if needed creates) the state file at path.
func New(ctx context.Context, path string) (*Client, error) {
	if path == "" {
		return nil, fmt.Errorf("state file path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("creating state dir: %w", err)
	}

	gormLogger := gormlogger.New(
		log.New(io.Discard, "", log.LstdFlags),
		gormlogger.Config{LogLevel: gormlogger.Silent},
	)

	conn, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger:                 gormLogger,
		SkipDefaultTransaction: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening state file: %w", err)
	}

	if err := conn.WithContext(ctx).AutoMigrate(&entry{}); err != nil {
		return nil, fmt.Errorf("migrating state schema: %w", err)
	}

	return &Client{conn: conn}, nil
}

// Get returns the value stored under key and whether it was present.
func (c *Client) Get(ctx context.Context, key string) (string, bool, error) {
	var e entry
	err := c.conn.WithContext(ctx).First(&e, "key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("reading %q: %w", key, err)
	}
	return e.Value, true, nil
}

// Set overwrites the value stored under key. Writes are whole-value, last
// write wins.
func (c *Client) Set(ctx context.Context, key, value string) error {
	e := entry{Key: key, Value: value}
	err := c.conn.WithContext(ctx).Save(&e).Error
	if err != nil {
		return fmt.Errorf("writing %q: %w", key, err)
	}
	return nil
}

// Delete removes key if present.
func (c *Client) Delete(ctx context.Context, key string) error {
	err := c.conn.WithContext(ctx).Delete(&entry{}, "key = ?", key).Error
	if err != nil {
		return fmt.Errorf("deleting %q: %w", key, err)
	}
	return nil
}

// Close shuts down the underlying connection.
func (c *Client) Close() error {
	sqlDB, err := c.conn.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
