package messaging

// ChangeTopic names one domain event stream. Queues are prefixed per
// storefront so multiple stores can share a broker.
type ChangeTopic string

const (
	ProductSavedTopic   ChangeTopic = "product_saved"
	ProductDeletedTopic ChangeTopic = "product_deleted"
	TermChangedTopic    ChangeTopic = "term_changed"
	ConfigChangedTopic  ChangeTopic = "config_changed"
)

func getName(prefix string, topic ChangeTopic) string {
	return prefix + "." + string(topic)
}

// TermChange is the payload of term create/edit/delete events.
type TermChange struct {
	Taxonomy string `json:"taxonomy"`
	TermId   uint   `json:"termId"`
	Action   string `json:"action"`
}

// ConfigChange announces that the merchant configuration was edited.
type ConfigChange struct {
	Version int `json:"version"`
}
