package model

// User is the contact profile of an authenticated identity. ID is the
// subject issued by the identity provider.
type User struct {
	ID          string `json:"id" db:"id"`
	Email       string `json:"email" db:"email"`
	Mobile      string `json:"mobile" db:"mobile"`
	DisplayName string `json:"display_name" db:"display_name"`
	Timestamps
}

type UpdateProfileRequest struct {
	Email       string `json:"email" binding:"omitempty,email"`
	Mobile      string `json:"mobile" binding:"omitempty,max=32"`
	DisplayName string `json:"display_name" binding:"omitempty,max=200"`
}
