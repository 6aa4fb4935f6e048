package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"

	memberdomain "github.com/samenkoop/winkel/internal/member/domain"
)

type repo struct{}

func Provide() memberdomain.Repository {
	return &repo{}
}

func (r *repo) FindGroup(ctx context.Context, db *gorm.DB, id snowflake.ID) (*memberdomain.Group, error) {
	var g memberdomain.Group
	err := db.WithContext(ctx).Raw(
		`SELECT id, name, slug, created_at FROM groups WHERE id = ?`,
		id,
	).Scan(&g).Error
	if err != nil {
		return nil, err
	}
	if g.ID == 0 {
		return nil, nil
	}
	return &g, nil
}

func (r *repo) RoleOf(ctx context.Context, db *gorm.DB, groupID, memberID snowflake.ID) (*memberdomain.Role, error) {
	var row struct {
		Role memberdomain.Role `gorm:"column:role"`
	}
	err := db.WithContext(ctx).Raw(
		`SELECT role FROM group_members WHERE group_id = ? AND member_id = ?`,
		groupID,
		memberID,
	).Scan(&row).Error
	if err != nil {
		return nil, err
	}
	if row.Role == "" {
		return nil, nil
	}
	return &row.Role, nil
}

func (r *repo) IsMember(ctx context.Context, db *gorm.DB, groupID, memberID snowflake.ID) (bool, error) {
	var count int64
	err := db.WithContext(ctx).Raw(
		`SELECT COUNT(1) FROM group_members WHERE group_id = ? AND member_id = ?`,
		groupID,
		memberID,
	).Scan(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *repo) FindMember(ctx context.Context, db *gorm.DB, id snowflake.ID) (*memberdomain.Member, error) {
	var m memberdomain.Member
	err := db.WithContext(ctx).Raw(
		`SELECT id, display_name, email, created_at FROM members WHERE id = ?`,
		id,
	).Scan(&m).Error
	if err != nil {
		return nil, err
	}
	if m.ID == 0 {
		return nil, nil
	}
	return &m, nil
}

func (r *repo) MembersByID(ctx context.Context, db *gorm.DB, ids []snowflake.ID) (map[snowflake.ID]memberdomain.Member, error) {
	out := make(map[snowflake.ID]memberdomain.Member, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	var rows []memberdomain.Member
	err := db.WithContext(ctx).Raw(
		`SELECT id, display_name, email, created_at FROM members WHERE id IN ?`,
		ids,
	).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, m := range rows {
		out[m.ID] = m
	}
	return out, nil
}
