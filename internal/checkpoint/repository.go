package checkpoint

import "fmt"

// Key identifies one checkpoint record
type Key struct {
	CampaignID string
	ItemID     string
}

// String renders the key in its canonical storage form
func (k Key) String() string {
	return fmt.Sprintf("%s--%s", k.CampaignID, k.ItemID)
}

// Repository is the external key-value collaborator checkpoints are stored
// in. The 24-hour soft TTL is enforced by the Store, not the repository.
// Concurrent runs for the same key are assumed not to occur; last-writer-wins
// is acceptable only under that precondition.
type Repository interface {
	Get(key Key) ([]byte, error)
	Set(key Key, value []byte) error
	Delete(key Key) error
	List() ([]Key, error)
	Close() error
}

// ErrNotFound is returned by Get when no record exists for the key
var ErrNotFound = fmt.Errorf("checkpoint not found")
