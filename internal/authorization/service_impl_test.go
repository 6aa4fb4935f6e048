package authorization_test

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/samenkoop/winkel/internal/authorization"
	memberdomain "github.com/samenkoop/winkel/internal/member/domain"
	memberrepo "github.com/samenkoop/winkel/internal/member/repository"
)

type authzFixture struct {
	svc     authorization.Service
	node    *snowflake.Node
	db      *gorm.DB
	groupID snowflake.ID
}

func newAuthzFixture(t *testing.T) *authzFixture {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&memberdomain.Group{},
		&memberdomain.Member{},
		&memberdomain.GroupMember{},
	))

	enforcer, err := authorization.NewEnforcer(db)
	require.NoError(t, err)

	node, err := snowflake.NewNode(3)
	require.NoError(t, err)

	svc := authorization.NewService(authorization.Params{
		DB:         db,
		Log:        zap.NewNop(),
		Enforcer:   enforcer,
		MemberRepo: memberrepo.Provide(),
	})

	f := &authzFixture{svc: svc, node: node, db: db}
	f.groupID = node.Generate()
	require.NoError(t, db.Create(&memberdomain.Group{ID: f.groupID, Name: "Groep", Slug: "groep"}).Error)
	return f
}

func (f *authzFixture) addMember(t *testing.T, role memberdomain.Role) snowflake.ID {
	t.Helper()
	id := f.node.Generate()
	require.NoError(t, f.db.Create(&memberdomain.Member{ID: id, DisplayName: "Lid", Email: "lid@example.org"}).Error)
	require.NoError(t, f.db.Create(&memberdomain.GroupMember{ID: f.node.Generate(), GroupID: f.groupID, MemberID: id, Role: role}).Error)
	return id
}

func TestAuthorizeRolePermissions(t *testing.T) {
	f := newAuthzFixture(t)
	ctx := context.Background()

	member := f.addMember(t, memberdomain.RoleMember)
	manager := f.addMember(t, memberdomain.RoleManager)
	preparer := f.addMember(t, memberdomain.RolePreparer)

	group := f.groupID.String()

	assert.NoError(t, f.svc.Authorize(ctx, member.String(), group, authorization.ObjectOrder, authorization.ActionOrderCreate))
	assert.ErrorIs(t, f.svc.Authorize(ctx, member.String(), group, authorization.ObjectSettlement, authorization.ActionSettlementSettle), authorization.ErrForbidden)
	assert.ErrorIs(t, f.svc.Authorize(ctx, member.String(), group, authorization.ObjectOrder, authorization.ActionOrderList), authorization.ErrForbidden)

	assert.NoError(t, f.svc.Authorize(ctx, manager.String(), group, authorization.ObjectOrder, authorization.ActionOrderList))
	assert.NoError(t, f.svc.Authorize(ctx, manager.String(), group, authorization.ObjectSale, authorization.ActionSalePay))
	assert.ErrorIs(t, f.svc.Authorize(ctx, manager.String(), group, authorization.ObjectSettlement, authorization.ActionSettlementSettle), authorization.ErrForbidden)

	assert.NoError(t, f.svc.Authorize(ctx, preparer.String(), group, authorization.ObjectSettlement, authorization.ActionSettlementSettle))
	assert.ErrorIs(t, f.svc.Authorize(ctx, preparer.String(), group, authorization.ObjectOrder, authorization.ActionOrderCreate), authorization.ErrForbidden)
}

func TestAuthorizeOutsiderAndRoleChange(t *testing.T) {
	f := newAuthzFixture(t)
	ctx := context.Background()
	group := f.groupID.String()

	outsider := f.node.Generate()
	require.NoError(t, f.db.Create(&memberdomain.Member{ID: outsider, DisplayName: "Gast", Email: "gast@example.org"}).Error)
	assert.ErrorIs(t, f.svc.Authorize(ctx, outsider.String(), group, authorization.ObjectOrder, authorization.ActionOrderView), authorization.ErrForbidden)

	member := f.addMember(t, memberdomain.RoleMember)
	require.ErrorIs(t, f.svc.Authorize(ctx, member.String(), group, authorization.ObjectOrder, authorization.ActionOrderList), authorization.ErrForbidden)

	// Promotion in group_members takes effect on the next check.
	require.NoError(t, f.db.Model(&memberdomain.GroupMember{}).
		Where("group_id = ? AND member_id = ?", f.groupID, member).
		Update("role", memberdomain.RoleManager).Error)
	assert.NoError(t, f.svc.Authorize(ctx, member.String(), group, authorization.ObjectOrder, authorization.ActionOrderList))
}

func TestAuthorizeValidation(t *testing.T) {
	f := newAuthzFixture(t)
	ctx := context.Background()

	assert.ErrorIs(t, f.svc.Authorize(ctx, "", f.groupID.String(), authorization.ObjectOrder, authorization.ActionOrderView), authorization.ErrInvalidActor)
	assert.ErrorIs(t, f.svc.Authorize(ctx, "123", "", authorization.ObjectOrder, authorization.ActionOrderView), authorization.ErrInvalidGroup)
	assert.ErrorIs(t, f.svc.Authorize(ctx, "not-a-number", f.groupID.String(), authorization.ObjectOrder, authorization.ActionOrderView), authorization.ErrInvalidActor)
}
