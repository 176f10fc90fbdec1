// AngelaMos | 2026
// dto.go

package user

import (
	"time"
)

type CreateUserRequest struct {
	Email    string `json:"email"    validate:"required,max=255"`
	Password string `json:"password" validate:"required,max=128"`
	Name     string `json:"name"     validate:"required,max=100"`
	Role     string `json:"role"     validate:"omitempty,oneof=user admin"`
	Status   string `json:"status"   validate:"omitempty,oneof=active inactive"`
}

// UpdateUserRequest changes only the fields that are present. An empty
// password keeps the current one.
type UpdateUserRequest struct {
	Name     *string `json:"name,omitempty"     validate:"omitempty,max=100"`
	Email    *string `json:"email,omitempty"    validate:"omitempty,max=255"`
	Password *string `json:"password,omitempty" validate:"omitempty,max=128"`
	Role     *string `json:"role,omitempty"     validate:"omitempty,oneof=user admin"`
	Status   *string `json:"status,omitempty"   validate:"omitempty,oneof=active inactive"`
}

type UpdateProfileRequest struct {
	Name string `json:"name" validate:"required,min=1,max=100"`
}

type UserResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type ListUsersParams struct {
	Page     int    `json:"page"`
	PageSize int    `json:"page_size"`
	Search   string `json:"search"`
	Role     string `json:"role"`
	Status   string `json:"status"`
}

func (p *ListUsersParams) Normalize() {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 {
		p.PageSize = 20
	}
	if p.PageSize > 100 {
		p.PageSize = 100
	}
}

func (p *ListUsersParams) Offset() int {
	return (p.Page - 1) * p.PageSize
}

func ToUserResponse(u *User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		Role:      u.Role,
		Status:    u.Status,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

func ToUserResponseList(users []User) []UserResponse {
	responses := make([]UserResponse, 0, len(users))
	for i := range users {
		responses = append(responses, ToUserResponse(&users[i]))
	}
	return responses
}
