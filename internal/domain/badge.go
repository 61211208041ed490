package domain

import "time"

type Badge struct {
	ID          string
	UserID      string
	Code        string
	Name        string
	Description string
	Image       string
	EarnedAt    time.Time
}

// BadgeRule awards a badge once a contributor has this many approved submissions.
type BadgeRule struct {
	Code        string
	Name        string
	Description string
	Image       string
	Approved    int
}

var BadgeCatalog = []BadgeRule{
	{
		Code:        "first-bounty",
		Name:        "First Bounty",
		Description: "Claimed your first bounty",
		Image:       "/badges/first-bounty.png",
		Approved:    1,
	},
	{
		Code:        "code-master",
		Name:        "Code Master",
		Description: "Completed 5 bounties",
		Image:       "/badges/code-master.png",
		Approved:    5,
	},
}

// EarnedBadges lists the catalog entries unlocked at the given approved count.
func EarnedBadges(approved int) []BadgeRule {
	var earned []BadgeRule
	for _, rule := range BadgeCatalog {
		if approved >= rule.Approved {
			earned = append(earned, rule)
		}
	}
	return earned
}
