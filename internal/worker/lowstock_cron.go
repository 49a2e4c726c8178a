package worker

// lowstock_cron.go
// Background goroutine that periodically scans for items at or below their
// minimum quantity and enqueues one alert email per scan. A per-item Redis
// dedupe key keeps a stuck item from alerting on every tick.

import (
	"context"
	"fmt"
	"strings"
	"time"

	"stocktrack/internal/infra"
	"stocktrack/internal/model"
	"stocktrack/internal/repository"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	alertDedupePrefix = "alert:lowstock:"
	alertDedupeTTL    = 24 * time.Hour
)

// LowStockCronConfig holds all dependencies for the scan goroutine.
type LowStockCronConfig struct {
	InventoryRepo repository.InventoryRepository
	Dispatcher    *Dispatcher
	CB            *infra.CircuitBreaker
	RDB           *redis.Client
	Recipient     string
	Interval      time.Duration
}

// StartLowStockCron launches a goroutine that ticks every cfg.Interval,
// scans for low-stock items, and enqueues an alert email for the ones not
// alerted in the last 24 hours. It respects the context for graceful shutdown.
func StartLowStockCron(ctx context.Context, cfg LowStockCronConfig) {
	if cfg.Recipient == "" {
		log.Info().Msg("lowstock_cron: no alert recipient configured, not starting")
		return
	}
	go func() {
		ticker := time.NewTicker(cfg.Interval)
		defer ticker.Stop()

		log.Info().Dur("interval", cfg.Interval).Msg("lowstock_cron: started")

		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("lowstock_cron: shutting down")
				return
			case <-ticker.C:
				scanLowStock(ctx, cfg)
			}
		}
	}()
}

func scanLowStock(ctx context.Context, cfg LowStockCronConfig) {
	// If CB is open the mail relay is down — skip the scan entirely rather
	// than fill the queue with jobs that will only cycle through the DLQ.
	if cfg.CB.State() == infra.CBOpen {
		log.Debug().Msg("lowstock_cron: circuit breaker is open, skipping tick")
		return
	}

	items, err := cfg.InventoryRepo.LowStock(ctx)
	if err != nil {
		log.Error().Err(err).Msg("lowstock_cron: failed to query low-stock items")
		return
	}
	if len(items) == 0 {
		return
	}

	fresh := make([]model.InventoryItem, 0, len(items))
	for i := range items {
		key := alertDedupePrefix + items[i].ItemCode
		ok, err := cfg.RDB.SetNX(ctx, key, 1, alertDedupeTTL).Result()
		if err != nil {
			log.Error().Err(err).Str("item_code", items[i].ItemCode).Msg("lowstock_cron: dedupe check failed")
			continue
		}
		if ok {
			fresh = append(fresh, items[i])
		}
	}
	if len(fresh) == 0 {
		return
	}

	payload := EmailJobPayload{
		ToEmail: cfg.Recipient,
		Subject: fmt.Sprintf("Low stock alert: %d item(s) need reordering", len(fresh)),
		Body:    buildAlertBody(fresh),
	}
	if err := cfg.Dispatcher.EnqueueEmail(ctx, payload); err != nil {
		log.Error().Err(err).Msg("lowstock_cron: failed to enqueue alert email")
		return
	}
	log.Info().Int("items", len(fresh)).Msg("lowstock_cron: alert enqueued")
}

func buildAlertBody(items []model.InventoryItem) string {
	var b strings.Builder
	b.WriteString("The following items are at or below their minimum quantity:\n\n")
	for i := range items {
		item := &items[i]
		reorder := ""
		if item.ReorderQuantity != nil {
			reorder = fmt.Sprintf(", reorder %d", *item.ReorderQuantity)
		}
		fmt.Fprintf(&b, "  %s  %s — %d %s on hand (minimum %d%s)\n",
			item.ItemCode, item.Name, item.CurrentQuantity, item.Unit, item.MinimumQuantity, reorder)
	}
	b.WriteString("\nReview the inventory dashboard for details.\n")
	return b.String()
}
