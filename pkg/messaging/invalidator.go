package messaging

import (
	"encoding/json"
	"log"

	"github.com/matst80/slask-filter/pkg/cache"
	"github.com/matst80/slask-filter/pkg/taxonomy"
	amqp "github.com/rabbitmq/amqp091-go"
)

// ConfigReloader is implemented by the config store.
type ConfigReloader interface {
	Load() error
}

// Invalidator subscribes to the storefront's domain events and
// advances the global cache version stamp on every one of them. Bumped
// stamps make all prior cache keys unreachable, no sweep needed.
type Invalidator struct {
	Version *cache.Version
	Grouper *taxonomy.Grouper
	Config  ConfigReloader
}

// Listen attaches consumers for every invalidation topic. Each topic
// gets its own channel, matching how the broker is used elsewhere.
func (i *Invalidator) Listen(conn *amqp.Connection, prefix string) error {
	for _, topic := range []ChangeTopic{ProductSavedTopic, ProductDeletedTopic} {
		ch, err := conn.Channel()
		if err != nil {
			return err
		}
		if err := ListenToTopic(ch, prefix, topic, func(d amqp.Delivery) error {
			i.Version.Bump()
			return nil
		}); err != nil {
			return err
		}
	}

	ch, err := conn.Channel()
	if err != nil {
		return err
	}
	if err := ListenToTopic(ch, prefix, TermChangedTopic, func(d amqp.Delivery) error {
		stamp := i.Version.Bump()
		var change TermChange
		if err := json.Unmarshal(d.Body, &change); err != nil {
			log.Printf("Failed to unmarshal term change: %v", err)
			return nil
		}
		// Group data is rebuilt after the bump so no request can
		// cache against the old stamp with the new groups.
		if i.Grouper != nil && change.Taxonomy != "" {
			i.Grouper.Invalidate(change.Taxonomy)
		}
		log.Printf("Term change in %s invalidated caches (stamp %d)", change.Taxonomy, stamp)
		return nil
	}); err != nil {
		return err
	}

	ch, err = conn.Channel()
	if err != nil {
		return err
	}
	return ListenToTopic(ch, prefix, ConfigChangedTopic, func(d amqp.Delivery) error {
		i.Version.Bump()
		if i.Config != nil {
			if err := i.Config.Load(); err != nil {
				log.Printf("Failed to reload filter config: %v", err)
			}
		}
		return nil
	})
}
