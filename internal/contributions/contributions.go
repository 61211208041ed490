package contributions

import (
	"context"
	"fmt"
	"hash/fnv"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/bubelovv/bounty-board/internal/domain"
)

var ErrUsernameRequired = fmt.Errorf("%w: username is required", domain.ErrInvalidInput)

const dateLayout = "2006-01-02"

type Provider interface {
	Contributions(ctx context.Context, username string) ([]domain.Contribution, error)
}

// Synthetic fabricates a contribution calendar. It stands in for the GitHub
// API: every (username, date) pair always yields the same count in [0, 9].
type Synthetic struct {
	days int
	now  func() time.Time
}

func NewSynthetic(days int) *Synthetic {
	if days <= 0 {
		days = 61
	}
	return &Synthetic{days: days, now: time.Now}
}

// Contributions returns one entry per day, oldest first, ending today (UTC).
func (s *Synthetic) Contributions(ctx context.Context, username string) ([]domain.Contribution, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, ErrUsernameRequired
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	today := s.now().UTC().Truncate(24 * time.Hour)
	out := make([]domain.Contribution, 0, s.days)
	for i := s.days - 1; i >= 0; i-- {
		date := today.AddDate(0, 0, -i).Format(dateLayout)
		out = append(out, domain.Contribution{Date: date, Count: dayCount(username, date)})
	}
	return out, nil
}

func dayCount(username, date string) int {
	h := fnv.New64a()
	h.Write([]byte(strings.ToLower(username)))
	h.Write([]byte{0})
	h.Write([]byte(date))
	seed := h.Sum64()

	rng := rand.New(rand.NewPCG(seed, seed>>1|1))
	return rng.IntN(10)
}
