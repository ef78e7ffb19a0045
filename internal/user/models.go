package user

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID        uuid.UUID `json:"_id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Picture   string    `json:"picture"`
	CreatedAt time.Time `json:"createdAt"`
}

// Profile is the signed-in account data supplied by the identity provider.
type Profile struct {
	Email    string
	Username string
	Picture  string
}
