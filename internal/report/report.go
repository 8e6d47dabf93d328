// Package report reads the claim ledger for period-bounded summaries. It
// never mutates the ledger and tolerates concurrent claim-engine writes
// with read-committed semantics.
package report

import (
	"context"
	"sort"
	"time"

	"github.com/woodline-crm/woodquota/internal/models"
	"github.com/woodline-crm/woodquota/internal/quota"
	"github.com/woodline-crm/woodquota/internal/store"
	"gorm.io/gorm"
)

// Aggregator produces reporting views over the claim ledger.
type Aggregator struct {
	claims *store.ClaimStore
	users  *store.UserStore
}

// NewAggregator constructs an Aggregator on top of the shared connection.
func NewAggregator(conn *gorm.DB) *Aggregator {
	return &Aggregator{
		claims: store.NewClaimStore(conn),
		users:  store.NewUserStore(conn),
	}
}

// MonthsWithActivity returns the months holding active claims, newest
// first. Used to populate period pickers.
func (a *Aggregator) MonthsWithActivity(ctx context.Context) ([]string, error) {
	return a.claims.MonthsWithActivity(ctx)
}

// PeriodMonths resolves a period selector to concrete month buckets: n most
// recent months intersected with the months that actually have activity, or
// every active month when n is zero.
func (a *Aggregator) PeriodMonths(ctx context.Context, now time.Time, n int) ([]string, error) {
	active, errMonths := a.claims.MonthsWithActivity(ctx)
	if errMonths != nil {
		return nil, errMonths
	}
	if n <= 0 {
		return active, nil
	}

	activeSet := make(map[string]struct{}, len(active))
	for _, m := range active {
		activeSet[m] = struct{}{}
	}
	var months []string
	for _, m := range quota.LastNMonths(now, n) {
		if _, ok := activeSet[m]; ok {
			months = append(months, m)
		}
	}
	return months, nil
}

// ClaimsForMonths returns all claims in the given months. With
// includeCancelled set the result is a full audit export; otherwise only
// active claims appear.
func (a *Aggregator) ClaimsForMonths(ctx context.Context, months []string, includeCancelled bool) ([]models.Claim, error) {
	return a.claims.ByMonths(ctx, months, includeCancelled)
}

// CancelledClaims returns a page of the returns ledger for the given
// months.
func (a *Aggregator) CancelledClaims(ctx context.Context, months []string, offset, limit int) ([]models.Claim, int64, error) {
	return a.claims.CancelledByMonths(ctx, months, offset, limit)
}

// UserSummary is one row of the per-user report.
type UserSummary struct {
	UserID   uint64         `json:"user_id"`
	FullName string         `json:"full_name"` // Falls back to the raw id when the user is gone.
	Role     string         `json:"role"`
	Total    int            `json:"total"`              // Claims across the whole period.
	ByMonth  map[string]int `json:"by_month,omitempty"` // Month bucket to claim count.
}

// Summary is the grouped result for a period.
type Summary struct {
	Months []string      `json:"months"` // Requested buckets, newest first.
	Total  int           `json:"total"`  // Claims across all users.
	Users  []UserSummary `json:"users"`  // Ordered by descending total, then user id.
}

// Summarize groups claims per user and per month. Ordering is by descending
// total with user id as the stable tie-break.
func (a *Aggregator) Summarize(ctx context.Context, months []string, claims []models.Claim) (Summary, error) {
	users, errUsers := a.users.List(ctx)
	if errUsers != nil {
		return Summary{}, errUsers
	}
	userMap := make(map[uint64]models.User, len(users))
	for _, u := range users {
		userMap[u.ID] = u
	}

	sorted := append([]string(nil), months...)
	sort.Sort(sort.Reverse(sort.StringSlice(sorted)))

	byUser := make(map[uint64]map[string]int)
	for _, claim := range claims {
		monthCounts, ok := byUser[claim.UserID]
		if !ok {
			monthCounts = make(map[string]int)
			byUser[claim.UserID] = monthCounts
		}
		monthCounts[claim.Month]++
	}

	summary := Summary{Months: sorted, Total: len(claims)}
	for userID, monthCounts := range byUser {
		row := UserSummary{UserID: userID, ByMonth: monthCounts}
		if u, ok := userMap[userID]; ok {
			row.FullName = u.FullName
			row.Role = u.Role
		}
		for _, count := range monthCounts {
			row.Total += count
		}
		summary.Users = append(summary.Users, row)
	}

	sort.Slice(summary.Users, func(i, j int) bool {
		if summary.Users[i].Total != summary.Users[j].Total {
			return summary.Users[i].Total > summary.Users[j].Total
		}
		return summary.Users[i].UserID < summary.Users[j].UserID
	})
	return summary, nil
}
