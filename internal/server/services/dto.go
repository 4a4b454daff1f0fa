package services

import "time"

type RegisterRequest struct {
	Email           string `json:"email" validate:"required"`
	UserName        string `json:"userName" validate:"required,min=4,max=20"`
	Password        string `json:"password" validate:"required,password"`
	ConfirmPassword string `json:"confirmPassword" validate:"eqfield=Password"`
	BirthYear       int    `json:"birthYear" validate:"omitempty,min=1900,max=2100"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type ResetPasswordRequest struct {
	Email           string `json:"email"`
	ResetCode       string `json:"resetCode"`
	NewPassword     string `json:"newPassword"`
	ConfirmPassword string `json:"confirmPassword"`
}

// UpdateUserRequest changes only the fields that are set.
type UpdateUserRequest struct {
	UserID    string  `json:"userId"`
	UserName  *string `json:"userName" validate:"omitempty,min=4,max=20"`
	Email     *string `json:"email"`
	BirthYear int     `json:"birthYear" validate:"omitempty,min=1900,max=2100"`
}

type UserDTO struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

type LoginResponse struct {
	IsAuthenticated bool     `json:"isAuthenticated"`
	IsSuccess       bool     `json:"isSuccess"`
	Message         string   `json:"message,omitempty"`
	User            *UserDTO `json:"user,omitempty"`
	Token           string   `json:"token,omitempty"`
	RefreshToken    string   `json:"refreshToken,omitempty"`
}

type RoleDTO struct {
	ID       string `json:"id"`
	RoleName string `json:"roleName"`
}

type RoleRequest struct {
	UserID   string `json:"userId"`
	RoleName string `json:"roleName"`
}

// File is an uploaded multipart part.
type File struct {
	Name string
	Data []byte
}

type CreatePostRequest struct {
	UserID   string   `validate:"-"`
	Title    string   `validate:"min=5,max=60"`
	Content  string   `validate:"max=20000"`
	Keywords []string `validate:"-"`
	Files    []File   `validate:"-"`
}

type UpdatePostRequest struct {
	ID       string   `json:"id"`
	UserID   string   `json:"-"`
	Title    string   `json:"title" validate:"min=5,max=60"`
	Content  string   `json:"content" validate:"max=20000"`
	Keywords []string `json:"keywords"`
}

// DeletePostRequest names the post and the caller asking to remove it.
type DeletePostRequest struct {
	PostID string
	UserID string
	Roles  []string
}

type PostDTO struct {
	ID               string    `json:"id"`
	UserID           string    `json:"userId"`
	PostType         string    `json:"postType"`
	Title            string    `json:"title"`
	Content          string    `json:"content"`
	PlainTextContent string    `json:"plainTextContent"`
	IsPublished      bool      `json:"isPublished"`
	ImageURLs        []string  `json:"imageUrls,omitempty"`
	ImageURL         string    `json:"imageUrl,omitempty"`
	VideoURL         string    `json:"videoUrl,omitempty"`
	Keywords         []string  `json:"keywords"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}
