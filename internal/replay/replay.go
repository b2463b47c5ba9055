// Package replay sends captured requests to a RESP server over a pool of
// connections and collects the replies.
package replay

import (
	"context"
	"fmt"
	"sync"
	"time"

	pool "github.com/jolestar/go-commons-pool/v2"

	"github.com/cosmez/keyparse-go/internal/conn"
	"github.com/cosmez/keyparse-go/internal/resp"
)

// Client is a pooled RESP client for one server address.
type Client struct {
	pool    *pool.ObjectPool
	Timeout time.Duration
}

// Result is the outcome of one replayed request.
type Result struct {
	Index int
	Reply resp.RedisValue
	Err   error
}

// NewClient creates a client keeping at most size connections to addr.
func NewClient(ctx context.Context, addr string, size int) *Client {
	if size < 1 {
		size = 1
	}
	cfg := pool.NewDefaultPoolConfig()
	cfg.MaxTotal = size
	cfg.MaxIdle = size
	return &Client{
		pool:    pool.NewObjectPool(ctx, &connectionFactory{addr: addr}, cfg),
		Timeout: 5 * time.Second,
	}
}

// Do sends one encoded request and waits for its reply. A connection that
// fails mid-exchange is discarded instead of being returned to the pool.
func (c *Client) Do(ctx context.Context, raw []byte) (resp.RedisValue, error) {
	obj, err := c.pool.BorrowObject(ctx)
	if err != nil {
		return nil, fmt.Errorf("borrow connection: %w", err)
	}
	cn := obj.(*conn.Connection)

	if err := cn.SendRaw(raw); err != nil {
		c.pool.InvalidateObject(ctx, obj)
		return nil, fmt.Errorf("send: %w", err)
	}
	reply, err := cn.Receive(c.Timeout)
	if err != nil {
		c.pool.InvalidateObject(ctx, obj)
		return nil, fmt.Errorf("receive: %w", err)
	}
	if err := c.pool.ReturnObject(ctx, obj); err != nil {
		return nil, err
	}
	return reply, nil
}

// Replay sends every request using up to concurrency workers and returns
// the results in request order.
func (c *Client) Replay(ctx context.Context, requests [][]byte, concurrency int) []Result {
	if concurrency < 1 {
		concurrency = 1
	}
	results := make([]Result, len(requests))
	jobs := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				reply, err := c.Do(ctx, requests[i])
				results[i] = Result{Index: i, Reply: reply, Err: err}
			}
		}()
	}

feed:
	for i := range requests {
		select {
		case jobs <- i:
		case <-ctx.Done():
			for j := i; j < len(requests); j++ {
				results[j] = Result{Index: j, Err: ctx.Err()}
			}
			break feed
		}
	}
	close(jobs)
	wg.Wait()
	return results
}

// Close closes every pooled connection.
func (c *Client) Close(ctx context.Context) {
	c.pool.Close(ctx)
}
