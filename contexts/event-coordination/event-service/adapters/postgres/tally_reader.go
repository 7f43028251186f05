package postgresadapter

import (
	"context"
	"log/slog"
	"strings"

	"meetfix/contexts/event-coordination/event-service/domain/entities"
	domainerrors "meetfix/contexts/event-coordination/event-service/domain/errors"
	"meetfix/contexts/event-coordination/event-service/ports"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	slotTallyQuery = `SELECT slot_id AS option_id, COUNT(*) AS votes
FROM slot_votes
WHERE event_id = $1
GROUP BY slot_id`

	activityTallyQuery = `SELECT activity_id AS option_id, COUNT(*) AS votes
FROM activity_votes
WHERE event_id = $1
GROUP BY activity_id`
)

// TallyReader serves vote counts straight from the ledger tables over a pgx
// pool. Nothing is cached; every call is one GROUP BY.
type TallyReader struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

func NewTallyReader(pool *pgxpool.Pool, logger *slog.Logger) *TallyReader {
	if logger == nil {
		logger = slog.Default()
	}
	return &TallyReader{pool: pool, logger: logger}
}

type tallyRow struct {
	OptionID string `db:"option_id"`
	Votes    int    `db:"votes"`
}

func (r *TallyReader) CountVotes(ctx context.Context, eventID string, category entities.VoteCategory) (map[string]int, error) {
	query := slotTallyQuery
	switch category {
	case entities.VoteCategorySlot:
	case entities.VoteCategoryActivity:
		query = activityTallyQuery
	default:
		return nil, domainerrors.ErrInvalidVoteInput
	}

	var rows []tallyRow
	if err := pgxscan.Select(ctx, r.pool, &rows, query, strings.TrimSpace(eventID)); err != nil {
		r.logger.Error("event tally query failed",
			"event", "event_tally_query_failed",
			"module", "event-coordination/event-service",
			"layer", "adapter",
			"event_id", strings.TrimSpace(eventID),
			"category", string(category),
			"error", err.Error(),
		)
		return nil, err
	}
	counts := make(map[string]int, len(rows))
	for _, row := range rows {
		counts[row.OptionID] = row.Votes
	}
	return counts, nil
}

var _ ports.TallyReader = (*TallyReader)(nil)
