package achievement

import (
	"context"

	"github.com/douglasrmachado/Trilhas-App-sub001/internal/domain/progression"
)

// Repository defines the store contract for the achievement catalog and
// grants. Implementations live in infrastructure/persistence.
type Repository interface {
	// GetByTitle returns a catalog achievement by its unique title.
	// Returns shared.ErrAchievementNotFound if the catalog has no such entry.
	GetByTitle(ctx context.Context, title string) (*Achievement, error)

	// ListCatalog returns the full catalog ordered by type, then by
	// requirement threshold ascending.
	ListCatalog(ctx context.Context) ([]*Achievement, error)

	// ListForUser returns the learner's earned achievements, most recently
	// earned first.
	ListForUser(ctx context.Context, userID string) ([]*Earned, error)

	// Grant inserts the grant row and credits the achievement's XP reward to
	// the learner's balance in one transaction. The insert is
	// insert-if-absent: when a grant for (user, achievement) already exists
	// the call returns granted=false with no side effects, even under
	// concurrent duplicate calls.
	Grant(ctx context.Context, userID string, a *Achievement) (granted bool, balance progression.Balance, err error)
}
