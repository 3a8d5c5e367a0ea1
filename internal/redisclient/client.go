package redisclient

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Client wraps a Redis client with OpenTelemetry tracing
type Client struct {
	cmdable redis.Cmdable
}

// NewClient creates a new traced Redis client for single Redis instance
func NewClient(client *redis.Client) *Client {
	return &Client{cmdable: client}
}

// NewClusterClient creates a new traced Redis client for Redis cluster
func NewClusterClient(client *redis.ClusterClient) *Client {
	return &Client{cmdable: client}
}

// Get wraps Redis Get with tracing
func (c *Client) Get(ctx context.Context, key string) *redis.StringCmd {
	ctx, span := startSpan(ctx, "redis.get", key, "get")
	defer span.End()

	cmd := c.cmdable.Get(ctx, key)
	recordResult(span, cmd.Err())
	return cmd
}

// Set wraps Redis Set with tracing
func (c *Client) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	ctx, span := startSpan(ctx, "redis.set", key, "set",
		attribute.String("redis.expiration", expiration.String()))
	defer span.End()

	cmd := c.cmdable.Set(ctx, key, value, expiration)
	recordResult(span, cmd.Err())
	return cmd
}

// Del wraps Redis Del with tracing
func (c *Client) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	ctx, span := otel.Tracer("redis").Start(ctx, "redis.del",
		trace.WithAttributes(
			attribute.StringSlice("redis.keys", keys),
			attribute.String("redis.operation", "del"),
			attribute.String("redis.client", "app-social"),
		),
	)
	defer span.End()

	cmd := c.cmdable.Del(ctx, keys...)
	recordResult(span, cmd.Err())
	return cmd
}

// Exists wraps Redis Exists with tracing
func (c *Client) Exists(ctx context.Context, keys ...string) *redis.IntCmd {
	ctx, span := otel.Tracer("redis").Start(ctx, "redis.exists",
		trace.WithAttributes(
			attribute.StringSlice("redis.keys", keys),
			attribute.String("redis.operation", "exists"),
			attribute.String("redis.client", "app-social"),
		),
	)
	defer span.End()

	cmd := c.cmdable.Exists(ctx, keys...)
	recordResult(span, cmd.Err())
	return cmd
}

// TTL wraps Redis TTL with tracing
func (c *Client) TTL(ctx context.Context, key string) *redis.DurationCmd {
	ctx, span := startSpan(ctx, "redis.ttl", key, "ttl")
	defer span.End()

	cmd := c.cmdable.TTL(ctx, key)
	recordResult(span, cmd.Err())
	return cmd
}

// Ping wraps Redis Ping with tracing
func (c *Client) Ping(ctx context.Context) *redis.StatusCmd {
	ctx, span := otel.Tracer("redis").Start(ctx, "redis.ping",
		trace.WithAttributes(
			attribute.String("redis.operation", "ping"),
			attribute.String("redis.client", "app-social"),
		),
	)
	defer span.End()

	cmd := c.cmdable.Ping(ctx)
	recordResult(span, cmd.Err())
	return cmd
}

func startSpan(ctx context.Context, name, key, operation string, extra ...attribute.KeyValue) (context.Context, trace.Span) {
	attrs := append([]attribute.KeyValue{
		attribute.String("redis.key", key),
		attribute.String("redis.operation", operation),
		attribute.String("redis.client", "app-social"),
	}, extra...)
	return otel.Tracer("redis").Start(ctx, name, trace.WithAttributes(attrs...))
}

// recordResult marks the span; redis.Nil is a miss, not an error
func recordResult(span trace.Span, err error) {
	if err != nil && err != redis.Nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return
	}
	span.SetStatus(codes.Ok, "success")
}
