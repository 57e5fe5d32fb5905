package worker

import (
	"context"
	"fmt"

	"readiq.app/api/internal/model"
	"readiq.app/api/internal/queue"
	"readiq.app/api/internal/service"
)

type profileLinkHandler struct {
	profiles service.ProfileService
}

// NewProfileLinkHandler re-runs the profile linker for acceptances whose link
// step failed. The linker is idempotent so redelivery is harmless.
func NewProfileLinkHandler(profiles service.ProfileService) TaskHandler {
	return &profileLinkHandler{profiles: profiles}
}

func (h *profileLinkHandler) Handle(ctx context.Context, task queue.ProfileLinkTask) error {
	_, err := h.profiles.CreateOrUpdateProfile(ctx, service.LinkProfileInput{
		UserID:         task.UserID,
		Email:          task.Email,
		Name:           task.Name,
		Role:           model.Role(task.Role),
		OrganizationID: task.OrganizationID,
	})
	if err != nil {
		return fmt.Errorf("linking profile: %w", err)
	}
	return nil
}
