package docstore

import "github.com/google/uuid"

// newID returns a fresh document identifier. UUIDv7 keeps ids roughly
// time-ordered, which helps B-tree primary keys; v4 is the fallback when the
// v7 clock source fails.
func newID() string {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return id.String()
}
