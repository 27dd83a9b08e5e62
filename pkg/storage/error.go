package storage

// NotFoundError is returned when a record doesn't exist in the store.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e NotFoundError) Error() string {
	if e.ID == "" {
		return e.Resource + " not found"
	}

	return e.Resource + " not found: " + e.ID
}
