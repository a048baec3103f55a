// Package audit groups audit-log rows into month buckets and computes how
// long each bucket has before the retention policy purges it.
package audit

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

// DefaultRetentionDays is how long a closed month bucket is kept.
const DefaultRetentionDays = 90

// Entry is one audit-log row, already fetched from the database.
type Entry struct {
	ID         uuid.UUID `json:"id"`
	ActorEmail string    `json:"actor_email,omitempty"`
	Action     string    `json:"action"`
	Entity     string    `json:"entity,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// MonthGroup is one month's worth of entries with its purge countdown.
type MonthGroup struct {
	Year           int     `json:"year"`
	Month          int     `json:"month"`
	Label          string  `json:"label"`
	Entries        []Entry `json:"entries"`
	DaysUntilPurge int     `json:"days_until_purge"`
}

var monthNames = [...]string{
	"Janeiro", "Fevereiro", "Março", "Abril", "Maio", "Junho",
	"Julho", "Agosto", "Setembro", "Outubro", "Novembro", "Dezembro",
}

// GroupByMonth buckets entries by calendar month, newest bucket first. Each
// bucket is purged retentionDays after its month ends; the countdown never
// goes below zero (an overdue bucket is reported as 0, pending the purge).
func GroupByMonth(entries []Entry, retentionDays int, now time.Time) []MonthGroup {
	buckets := make(map[time.Time][]Entry)
	for _, e := range entries {
		monthStart := time.Date(e.CreatedAt.Year(), e.CreatedAt.Month(), 1, 0, 0, 0, 0, time.UTC)
		buckets[monthStart] = append(buckets[monthStart], e)
	}

	groups := make([]MonthGroup, 0, len(buckets))
	for monthStart, bucket := range buckets {
		sort.Slice(bucket, func(i, j int) bool {
			return bucket[i].CreatedAt.After(bucket[j].CreatedAt)
		})

		monthEnd := monthStart.AddDate(0, 1, 0)
		purgeAt := monthEnd.AddDate(0, 0, retentionDays)
		days := int(purgeAt.Sub(now).Hours() / 24)
		if days < 0 {
			days = 0
		}

		groups = append(groups, MonthGroup{
			Year:           monthStart.Year(),
			Month:          int(monthStart.Month()),
			Label:          monthNames[monthStart.Month()-1] + " " + monthStart.Format("2006"),
			Entries:        bucket,
			DaysUntilPurge: days,
		})
	}

	sort.Slice(groups, func(i, j int) bool {
		if groups[i].Year != groups[j].Year {
			return groups[i].Year > groups[j].Year
		}
		return groups[i].Month > groups[j].Month
	})
	return groups
}
