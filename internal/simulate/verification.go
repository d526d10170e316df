package simulate

import (
	"errors"
	"fmt"

	"github.com/okian/sportiq/internal/adapters/repository"
)

// ErrVerification marks a read-back that contradicts the service's own rules.
var ErrVerification = errors.New("verification failed")

// verifyLeaderboard checks ranks run 1..n over non-increasing scores.
func verifyLeaderboard(entries []repository.Entry) error {
	for i, e := range entries {
		if e.Rank != i+1 {
			return fmt.Errorf("%w: entry %d (%s) has rank %d", ErrVerification, i, e.UserID, e.Rank)
		}
		if i > 0 && entries[i-1].Score < e.Score {
			return fmt.Errorf("%w: %s (%.2f) ranked above %s (%.2f)",
				ErrVerification, entries[i-1].UserID, entries[i-1].Score, e.UserID, e.Score)
		}
	}
	return nil
}

// verifyRecommendations checks items come back best first.
func verifyRecommendations(userID string, recs recommendations) error {
	for i := 1; i < len(recs.Items); i++ {
		if recs.Items[i-1].Score < recs.Items[i].Score {
			return fmt.Errorf("%w: recommendations for %s not sorted at %d", ErrVerification, userID, i)
		}
	}
	return nil
}

// verifyRank checks that a rank read on its own agrees with the board, for
// fans that made it onto the fetched page.
func verifyRank(entry repository.Entry, board []repository.Entry) error {
	if entry.Rank < 1 {
		return fmt.Errorf("%w: %s has rank %d", ErrVerification, entry.UserID, entry.Rank)
	}
	for _, e := range board {
		if e.UserID == entry.UserID && e.Score != entry.Score {
			return fmt.Errorf("%w: %s scores %.2f on the board and %.2f on its own",
				ErrVerification, e.UserID, e.Score, entry.Score)
		}
	}
	return nil
}
