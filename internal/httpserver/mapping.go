package httpserver

import (
	"time"

	"github.com/bubelovv/bounty-board/internal/domain"
)

func mapUser(u domain.User) map[string]any {
	return map[string]any{
		"id":             u.ID,
		"email":          u.Email,
		"githubUsername": u.GithubUsername,
		"githubAvatar":   u.GithubAvatar,
		"walletAddress":  u.WalletAddress,
		"role":           string(u.Role),
		"createdAt":      formatTime(u.CreatedAt),
		"updatedAt":      formatTime(u.UpdatedAt),
	}
}

func mapBounty(b domain.Bounty) map[string]any {
	resp := map[string]any{
		"id":          b.ID,
		"title":       b.Title(),
		"issueLink":   b.IssueLink,
		"repoLink":    b.RepoLink,
		"fundingTxId": b.FundingTxID,
		"creatorId":   b.CreatorID,
		"amount":      b.Amount.String(),
		"status":      string(b.Status),
		"createdAt":   formatTime(b.CreatedAt),
		"updatedAt":   formatTime(b.UpdatedAt),
	}
	if b.ClaimedBy != "" {
		resp["claimedBy"] = b.ClaimedBy
		resp["claimPR"] = b.ClaimPR
	}
	return resp
}

func mapBountyList(bounties []domain.Bounty) []map[string]any {
	result := make([]map[string]any, 0, len(bounties))
	for _, b := range bounties {
		result = append(result, mapBounty(b))
	}
	return result
}

func mapSubmission(s domain.Submission) map[string]any {
	resp := map[string]any{
		"id":          s.ID,
		"bountyId":    s.BountyID,
		"submitterId": s.SubmitterID,
		"prUrl":       s.PRURL,
		"issueUrl":    s.IssueURL,
		"status":      string(s.Status),
		"createdAt":   formatTime(s.CreatedAt),
	}
	if s.ReviewerComments != "" {
		resp["reviewerComments"] = s.ReviewerComments
	}
	if s.ReviewedAt != nil {
		resp["reviewedAt"] = formatTime(*s.ReviewedAt)
	}
	return resp
}

func mapSubmissionList(subs []domain.Submission) []map[string]any {
	result := make([]map[string]any, 0, len(subs))
	for _, s := range subs {
		result = append(result, mapSubmission(s))
	}
	return result
}

func mapCreatorBounties(items []domain.BountyWithSubmissions) []map[string]any {
	result := make([]map[string]any, 0, len(items))
	for _, item := range items {
		resp := mapBounty(item.Bounty)
		resp["submissions"] = mapSubmissionList(item.Submissions)
		result = append(result, resp)
	}
	return result
}

func mapBadges(badges []domain.Badge) []map[string]any {
	result := make([]map[string]any, 0, len(badges))
	for _, b := range badges {
		result = append(result, map[string]any{
			"id":          b.ID,
			"code":        b.Code,
			"name":        b.Name,
			"description": b.Description,
			"image":       b.Image,
			"earnedAt":    formatTime(b.EarnedAt),
		})
	}
	return result
}

func mapContributions(items []domain.Contribution) []map[string]any {
	result := make([]map[string]any, 0, len(items))
	for _, c := range items {
		result = append(result, map[string]any{
			"date":  c.Date,
			"count": c.Count,
		})
	}
	return result
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
