// Package database owns the process-wide MongoDB client. The client is built
// once at startup and only pinged for health reporting.
package database

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
)

// ErrDisabled 表示未配置 MongoDB 连接串。
var ErrDisabled = errors.New("mongodb not configured")

// Client 包装 mongo.Client；nil 接收者代表未启用。
type Client struct {
	client *mongo.Client
}

// Connect 根据连接串创建客户端。驱动采用惰性连接，真正的可达性由 Ping 判断。
// uri 为空时返回 (nil, nil)。
func Connect(uri string, timeout time.Duration) (*Client, error) {
	uri = strings.TrimSpace(uri)
	if uri == "" {
		return nil, nil
	}

	opts := options.Client().ApplyURI(uri)
	if timeout > 0 {
		opts.SetConnectTimeout(timeout).SetServerSelectionTimeout(timeout)
	}
	client, err := mongo.Connect(opts)
	if err != nil {
		return nil, fmt.Errorf("connect mongodb: %w", err)
	}
	return &Client{client: client}, nil
}

// Enabled 表示是否配置了数据库。
func (c *Client) Enabled() bool {
	return c != nil && c.client != nil
}

// Ping 检查主节点可达。
func (c *Client) Ping(ctx context.Context) error {
	if !c.Enabled() {
		return ErrDisabled
	}
	if err := c.client.Ping(ctx, readpref.Primary()); err != nil {
		return fmt.Errorf("ping mongodb: %w", err)
	}
	return nil
}

// Close 断开连接；未启用时为空操作。
func (c *Client) Close(ctx context.Context) error {
	if !c.Enabled() {
		return nil
	}
	return c.client.Disconnect(ctx)
}
