package note

import "context"

// Repository is the storage contract implemented by every backend.
//
// Get and Patch return (nil, nil) for an unknown id. Delete reports
// whether a note was removed and never fails for an unknown id.
// Connectivity failures are wrapped in ErrBackendUnavailable.
type Repository interface {
	// Create persists a new note. Empty text yields ErrValidation.
	Create(ctx context.Context, text string) (*Note, error)

	// List returns all notes ordered by CreatedAt descending, newest first.
	List(ctx context.Context) ([]*Note, error)

	Get(ctx context.Context, id string) (*Note, error)

	// Patch applies p and always refreshes UpdatedAt, even for an empty patch.
	Patch(ctx context.Context, id string, p Patch) (*Note, error)

	// Search filters the List order by q.
	Search(ctx context.Context, q Query) ([]*Note, error)

	Delete(ctx context.Context, id string) (bool, error)

	// Name identifies the backend in logs and health output.
	Name() string

	Close() error
}

// ValidateText checks the creation precondition shared by all backends.
func ValidateText(text string) error {
	if text == "" {
		return validationf("text is required")
	}
	return nil
}
