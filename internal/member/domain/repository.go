package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// Repository resolves membership and member identity.
type Repository interface {
	FindGroup(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Group, error)
	IsMember(ctx context.Context, db *gorm.DB, groupID, memberID snowflake.ID) (bool, error)
	// RoleOf returns the member's role in the group, or nil when the member
	// does not belong to it.
	RoleOf(ctx context.Context, db *gorm.DB, groupID, memberID snowflake.ID) (*Role, error)
	FindMember(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Member, error)
	// MembersByID resolves display data for a set of members in one query.
	MembersByID(ctx context.Context, db *gorm.DB, ids []snowflake.ID) (map[snowflake.ID]Member, error)
}
