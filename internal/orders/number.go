package orders

import (
	"context"
	"fmt"
	"time"
)

const orderNumberPrefix = "AMB"

func counterKey(t time.Time) string {
	return "order:" + t.Format("0601")
}

func formatOrderNumber(t time.Time, seq int64) string {
	return fmt.Sprintf("%s%s%04d", orderNumberPrefix, t.Format("0601"), seq)
}

// nextOrderNumber draws the next number of the month from the atomic
// counter. Numbers are strictly increasing within a month.
func (s *Service) nextOrderNumber(ctx context.Context, now time.Time) (string, error) {
	seq, err := s.store.Counters.Next(ctx, counterKey(now))
	if err != nil {
		return "", err
	}
	return formatOrderNumber(now, seq), nil
}
