package farmer

import (
	"time"
)

// Farmer is the canonical farmer row. Password holds the bcrypt hash and is
// never serialized.
type Farmer struct {
	ID          int64     `json:"id"`
	FullName    string    `json:"full_name"`
	Email       string    `json:"email"`
	Username    string    `json:"username"`
	Password    string    `json:"-"`
	Location    District  `json:"location"`
	PhoneNumber string    `json:"phone_number"`
	Address     string    `json:"address"`
	AvatarURL   string    `json:"avatar_url"`
	CreatedAt   time.Time `json:"created_at"`
}

type RegisterInput struct {
	FullName        string   `json:"full_name"`
	Email           string   `json:"email"`
	Username        string   `json:"username"`
	Location        District `json:"location"`
	PhoneNumber     string   `json:"phone_number"`
	Password        string   `json:"password"`
	ConfirmPassword string   `json:"confirm_password"`
}

// ProfileUpdate is a partial update; nil fields keep their stored value.
type ProfileUpdate struct {
	FullName    *string   `json:"full_name,omitempty"`
	Email       *string   `json:"email,omitempty"`
	Location    *District `json:"location,omitempty"`
	PhoneNumber *string   `json:"phone_number,omitempty"`
	Address     *string   `json:"address,omitempty"`
	AvatarURL   *string   `json:"avatar_url,omitempty"`
}

// Summary is a farmer as listed to the supermarket: the row plus the names
// of everything they currently list.
type Summary struct {
	Farmer
	ProductNames []string `json:"product_names"`
}

type Avatar struct {
	Filename    string
	ContentType string
	Size        int64
}
