package payout

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// ReportCache holds computed period reports. A miss or a cache failure
// is never fatal; the service recomputes from the database.
type ReportCache interface {
	Get(ctx context.Context, periodMonth string) (*PayoutReport, bool)
	Set(ctx context.Context, report *PayoutReport)
	Invalidate(ctx context.Context, periodMonth string)
	// InvalidateAll drops every cached period. Used when an input that
	// is not period-keyed changes, such as a beneficiary's bank info.
	InvalidateAll(ctx context.Context)
}

type redisReportCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisReportCache(client *redis.Client, ttl time.Duration) ReportCache {
	return &redisReportCache{client: client, ttl: ttl}
}

func reportCacheKey(periodMonth string) string {
	return fmt.Sprintf("payout:report:%s", periodMonth)
}

func (c *redisReportCache) Get(ctx context.Context, periodMonth string) (*PayoutReport, bool) {
	data, err := c.client.Get(ctx, reportCacheKey(periodMonth)).Bytes()
	if err != nil {
		if err != redis.Nil {
			log.Printf("⚠️ Report cache read failed for %s: %v", periodMonth, err)
		}
		return nil, false
	}

	var report PayoutReport
	if err := json.Unmarshal(data, &report); err != nil {
		log.Printf("⚠️ Report cache entry for %s is corrupt, discarding: %v", periodMonth, err)
		c.Invalidate(ctx, periodMonth)
		return nil, false
	}
	return &report, true
}

func (c *redisReportCache) Set(ctx context.Context, report *PayoutReport) {
	data, err := json.Marshal(report)
	if err != nil {
		log.Printf("⚠️ Failed to marshal report for cache: %v", err)
		return
	}
	if err := c.client.Set(ctx, reportCacheKey(report.PeriodMonth), data, c.ttl).Err(); err != nil {
		log.Printf("⚠️ Report cache write failed for %s: %v", report.PeriodMonth, err)
	}
}

func (c *redisReportCache) Invalidate(ctx context.Context, periodMonth string) {
	if err := c.client.Del(ctx, reportCacheKey(periodMonth)).Err(); err != nil {
		log.Printf("⚠️ Report cache invalidation failed for %s: %v", periodMonth, err)
	}
}

func (c *redisReportCache) InvalidateAll(ctx context.Context) {
	iter := c.client.Scan(ctx, 0, reportCacheKey("*"), 0).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
			log.Printf("⚠️ Report cache invalidation failed for %s: %v", iter.Val(), err)
		}
	}
	if err := iter.Err(); err != nil {
		log.Printf("⚠️ Report cache scan failed: %v", err)
	}
}

// noopReportCache is used when Redis is not configured.
type noopReportCache struct{}

func NewNoopReportCache() ReportCache { return &noopReportCache{} }

func (noopReportCache) Get(context.Context, string) (*PayoutReport, bool) { return nil, false }
func (noopReportCache) Set(context.Context, *PayoutReport)                {}
func (noopReportCache) Invalidate(context.Context, string)                {}
func (noopReportCache) InvalidateAll(context.Context)                     {}
