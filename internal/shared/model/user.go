// Package model 定义核心数据模型
package model

import (
	"fmt"
	"regexp"
	"time"
)

// UserRole 用户角色
type UserRole string

const (
	UserRoleAdmin UserRole = "admin"
	UserRoleUser  UserRole = "user"
)

// User 用户
//
// PasswordHash 只存 bcrypt 哈希，JSON 序列化时永远排除。
type User struct {
	ID            string    `json:"id" bson:"_id"`
	Name          string    `json:"name" bson:"name"`
	Email         string    `json:"email" bson:"email"`
	PasswordHash  string    `json:"-" bson:"password_hash"`
	Role          UserRole  `json:"role" bson:"role"`
	EmailVerified bool      `json:"email_verified" bson:"email_verified"`
	CreatedAt     time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" bson:"updated_at"`
}

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// IsValidEmail 校验邮箱格式
func IsValidEmail(email string) bool {
	return emailRegex.MatchString(email)
}

// Validate 验证用户数据
func (u *User) Validate() error {
	if u.Name == "" {
		return fmt.Errorf("user name is required")
	}
	if !IsValidEmail(u.Email) {
		return fmt.Errorf("invalid email format")
	}
	if u.Role == "" {
		u.Role = UserRoleUser
	}
	if u.Role != UserRoleAdmin && u.Role != UserRoleUser {
		return fmt.Errorf("invalid role: %s", u.Role)
	}
	return nil
}
