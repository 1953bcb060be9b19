package dto

import "anoa.com/facultydir/internal/entity"

type UpdateUserRoleInput struct {
	Role string `json:"role" binding:"required,oneof=STAFF MANAGER"`
}

type AdminUserResponse struct {
	User    *entity.User    `json:"user"`
	Profile *entity.Profile `json:"profile,omitempty"`
}

type StatsResponse struct {
	TotalUsers    int64 `json:"total_users"`
	TotalProfiles int64 `json:"total_profiles"`
}
