// Package domain contains group-membership read models.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Role grades what a member may do within a group.
type Role string

const (
	RoleMember   Role = "MEMBER"
	RoleManager  Role = "MANAGER"
	RolePreparer Role = "PREPARER"
)

// Group is a consumer/buying group scoping catalog, periods and orders.
type Group struct {
	ID        snowflake.ID `json:"id" gorm:"primaryKey"`
	Name      string       `json:"name" gorm:"type:text;not null"`
	Slug      string       `json:"slug" gorm:"type:text;not null;uniqueIndex"`
	CreatedAt time.Time    `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Group) TableName() string { return "groups" }

// Member is a person who can buy within one or more groups.
type Member struct {
	ID          snowflake.ID `json:"id" gorm:"primaryKey"`
	DisplayName string       `json:"display_name" gorm:"type:text;not null"`
	Email       string       `json:"email" gorm:"type:text;not null"`
	CreatedAt   time.Time    `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Member) TableName() string { return "members" }

// GroupMember binds a member to a group with a role.
type GroupMember struct {
	ID        snowflake.ID `json:"id" gorm:"primaryKey"`
	GroupID   snowflake.ID `json:"group_id" gorm:"column:group_id;not null;index;uniqueIndex:ux_group_member"`
	MemberID  snowflake.ID `json:"member_id" gorm:"column:member_id;not null;index;uniqueIndex:ux_group_member"`
	Role      Role         `json:"role" gorm:"type:text;not null;default:'MEMBER'"`
	CreatedAt time.Time    `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (GroupMember) TableName() string { return "group_members" }
