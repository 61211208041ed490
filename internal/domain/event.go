package domain

type EventType string

const (
	EventBountyCreated      EventType = "bounty.created"
	EventBountyClaimed      EventType = "bounty.claimed"
	EventBountyApproved     EventType = "bounty.approved"
	EventSubmissionCreated  EventType = "submission.created"
	EventSubmissionApproved EventType = "submission.approved"
	EventSubmissionRejected EventType = "submission.rejected"
)

// Event is a change notification. UserIDs names every user whose views are affected.
type Event struct {
	Type         EventType `json:"type"`
	BountyID     string    `json:"bountyId"`
	SubmissionID string    `json:"submissionId,omitempty"`
	UserIDs      []string  `json:"userIds"`
}

func (e Event) Concerns(userID string) bool {
	for _, id := range e.UserIDs {
		if id == userID {
			return true
		}
	}
	return false
}
