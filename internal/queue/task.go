package queue

type TaskType string

const (
	// TaskTypeProfileLink re-runs profile linking for an invitation that was
	// accepted at the provider but never got its profile row linked.
	TaskTypeProfileLink TaskType = "profile_link"
)

// ProfileLinkTask carries everything the linker needs, so the worker never has
// to call back into the auth provider.
type ProfileLinkTask struct {
	InvitationID   string
	OrganizationID string
	UserID         int64
	Email          string
	Name           string
	Role           string
	TraceID        *string
	Attempt        int
}
