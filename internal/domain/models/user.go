// internal/domain/models/user.go
package models

import "time"

// User is the minimal user row the journal needs to answer "does this user
// exist". Profiles and credentials live with the identity service.
type User struct {
	ID        string    `bson:"_id" json:"id" gorm:"column:id;primaryKey;type:varchar(36)"`
	Name      string    `bson:"name" json:"name" gorm:"column:name"`
	Email     string    `bson:"email" json:"email" gorm:"column:email"`
	CreatedAt time.Time `bson:"created_at" json:"created_at" gorm:"column:created_at"`
}

func (User) TableName() string { return "users" }
