package types

import (
	"github.com/finleap/scf-onboarding-backend/pkg/enums"
	"github.com/google/uuid"
)

// Identity is the resolved caller passed explicitly into core operations.
// A nil *Identity means the request was anonymous.
type Identity struct {
	UserID uuid.UUID      `json:"user_id"`
	Email  string         `json:"email"`
	Role   enums.UserRole `json:"role"`
}
