package model

import "time"

type UserType string

const (
	UserTypeStudent UserType = "student"
	UserTypeTeacher UserType = "teacher"
)

type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Gender       string    `json:"gender"`
	Stream       string    `json:"stream"` // School, NEET, JEE
	Class        string    `json:"class"`  // 5-12, 11, 12, Dropper
	Phone        string    `json:"phone,omitempty"`
	Email        string    `json:"email,omitempty"`
	ProfilePhoto string    `json:"profile_photo,omitempty"`
	Language     string    `json:"language"` // english, hindi
	UserType     UserType  `json:"user_type"`
	IsAdmin      bool      `json:"is_admin"`
	AdminClass   string    `json:"admin_class,omitempty"` // which class this admin manages
	CreatedAt    time.Time `json:"created_at"`
}

type UserPublic struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Username     string   `json:"username"`
	Stream       string   `json:"stream"`
	Class        string   `json:"class"`
	ProfilePhoto string   `json:"profile_photo,omitempty"`
	UserType     UserType `json:"user_type"`
	IsAdmin      bool     `json:"is_admin"`
}

func (u *User) ToPublic() UserPublic {
	return UserPublic{
		ID:           u.ID,
		Name:         u.Name,
		Username:     u.Username,
		Stream:       u.Stream,
		Class:        u.Class,
		ProfilePhoto: u.ProfilePhoto,
		UserType:     u.UserType,
		IsAdmin:      u.IsAdmin,
	}
}
