package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/matst80/slask-filter/pkg/cache"
	"github.com/matst80/slask-filter/pkg/common"
	"github.com/matst80/slask-filter/pkg/config"
	"github.com/matst80/slask-filter/pkg/facets"
	"github.com/matst80/slask-filter/pkg/lookup"
	"github.com/matst80/slask-filter/pkg/messaging"
	"github.com/matst80/slask-filter/pkg/query"
	"github.com/matst80/slask-filter/pkg/server"
	"github.com/matst80/slask-filter/pkg/storage"
	"github.com/matst80/slask-filter/pkg/taxonomy"

	amqp "github.com/rabbitmq/amqp091-go"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	var store cache.Store
	var version *cache.Version
	if cfg.Redis.Addr != "" {
		tiered := cache.NewTieredStore(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		store = tiered
		version = cache.NewVersion(tiered.Client())
	} else {
		store = cache.NewMemoryStore()
		version = cache.NewVersion(nil)
	}

	provider := taxonomy.NewMemoryProvider()
	executor := query.NewMemoryExecutor(provider)

	if catalog, err := storage.LoadCatalog(cfg.DataDir); err != nil {
		log.Printf("Could not load catalog snapshot: %v", err)
	} else {
		for _, tax := range catalog.Taxonomies {
			provider.AddTaxonomy(tax.Name, tax.Hierarchical, tax.Terms...)
		}
		executor.Upsert(catalog.Products...)
		log.Printf("Loaded %d products in %d taxonomies", len(catalog.Products), len(catalog.Taxonomies))
	}

	var lookupSource lookup.Source
	if cfg.Lookup.Dsn != "" {
		pg, err := lookup.NewPG(context.Background(), cfg.Lookup.Dsn)
		if err != nil {
			log.Printf("Failed to connect lookup database: %v", err)
		} else {
			lookupSource = pg
			defer pg.Close()
		}
	}

	grouper := taxonomy.NewGrouper(provider, store, time.Hour)
	processor := query.NewProcessor(provider, grouper, lookupSource)
	calculator := facets.NewCalculator(processor, executor, provider, grouper, lookupSource, store, version)

	configStore := storage.NewConfigStore(cfg.DataDir)
	if err := configStore.Load(); err != nil {
		log.Printf("Could not load filter config, using defaults: %v", err)
	}

	if cfg.Amqp.Url != "" {
		connectAmqp(cfg, configStore, version, grouper, executor)
	}

	ws := &server.WebServer{
		Store:      configStore,
		Processor:  processor,
		Calculator: calculator,
		Executor:   executor,
	}

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           ws.CreateHandler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	common.RunServerWithShutdown(httpServer, "slask-filter", 15*time.Second, func(ctx context.Context) error {
		return store.Close()
	})
}

func connectAmqp(cfg *config.Config, configStore *storage.ConfigStore, version *cache.Version, grouper *taxonomy.Grouper, executor *query.MemoryExecutor) {
	conn, err := amqp.DialConfig(cfg.Amqp.Url, amqp.Config{
		Properties: amqp.NewConnectionProperties(),
	})
	if err != nil {
		log.Fatalf("Failed to connect to RabbitMQ: %v", err)
	}

	invalidator := &messaging.Invalidator{
		Version: version,
		Grouper: grouper,
		Config:  configStore,
	}
	if err := invalidator.Listen(conn, cfg.Amqp.Prefix); err != nil {
		log.Fatalf("Failed to attach invalidation listeners: %v", err)
	}

	// Keep the in-process product set in sync with the storefront.
	ch, err := conn.Channel()
	if err != nil {
		log.Fatalf("Failed to open a channel: %v", err)
	}
	messaging.ListenToTopic(ch, cfg.Amqp.Prefix, messaging.ProductSavedTopic, func(d amqp.Delivery) error {
		var products []query.Product
		if err := json.Unmarshal(d.Body, &products); err != nil {
			log.Printf("Failed to unmarshal product upsert: %v", err)
			return nil
		}
		executor.Upsert(products...)
		return nil
	})

	ch, err = conn.Channel()
	if err != nil {
		log.Fatalf("Failed to open a channel: %v", err)
	}
	messaging.ListenToTopic(ch, cfg.Amqp.Prefix, messaging.ProductDeletedTopic, func(d amqp.Delivery) error {
		var id uint
		if err := json.Unmarshal(d.Body, &id); err != nil {
			log.Printf("Failed to unmarshal product delete: %v", err)
			return nil
		}
		executor.Delete(id)
		return nil
	})

	log.Printf("Listening for domain events on %s", cfg.Amqp.Prefix)
}
