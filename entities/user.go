package entities

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key;default:uuid_generate_v4()" json:"id"`
	Email     string    `gorm:"type:varchar(254);uniqueIndex" json:"email"`
	Username  string    `gorm:"type:varchar(150);uniqueIndex" json:"username"`
	FirstName string    `gorm:"type:varchar(150)" json:"first_name"`
	LastName  string    `gorm:"type:varchar(150)" json:"last_name"`
	Password  string    `json:"-"`
	AvatarURL string    `json:"avatar_url,omitempty"`
	Role      string    `gorm:"type:varchar(16)" json:"role"`

	Timestamp
}

// Subscription links a follower to an author. The pair is unique; the
// self-subscription check happens in the service before any write.
type Subscription struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key;default:uuid_generate_v4()" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_subscriptions_user_author" json:"user_id"`
	AuthorID  uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_subscriptions_user_author" json:"author_id"`
	CreatedAt time.Time `gorm:"type:timestamp" json:"created_at"`

	User   *User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	Author *User `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE"`
}
