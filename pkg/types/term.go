package types

// Term is one value of a taxonomy as returned by the term provider.
// Count is the number of products currently assigned to it.
type Term struct {
	Id     uint   `json:"id"`
	Slug   string `json:"slug"`
	Name   string `json:"name"`
	Parent uint   `json:"parent,omitempty"`
	Count  int    `json:"count"`
}
