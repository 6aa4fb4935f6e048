// Package authorization enforces group-scoped role permissions with casbin.
// Roles come from group_members; the enforcer persists its rules through the
// gorm adapter so policy survives restarts.
package authorization

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	gormadapter "github.com/casbin/gorm-adapter/v3"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	memberdomain "github.com/samenkoop/winkel/internal/member/domain"
)

//go:embed model.conf
var modelText string

const (
	ObjectOrder      = "order"
	ObjectSettlement = "settlement"
	ObjectSale       = "sale"
	ObjectCatalog    = "catalog"
)

const (
	ActionOrderCreate = "order.create"
	ActionOrderView   = "order.view"
	ActionOrderList   = "order.list"
	ActionOrderEdit   = "order.edit"

	ActionSettlementView   = "settlement.view"
	ActionSettlementExport = "settlement.export"
	ActionSettlementSettle = "settlement.settle"

	ActionSaleCreate = "sale.create"
	ActionSaleView   = "sale.view"
	ActionSalePay    = "sale.pay"

	ActionCatalogView = "catalog.view"
)

var (
	ErrInvalidActor = errors.New("invalid_actor")
	ErrInvalidGroup = errors.New("invalid_group")
	ErrForbidden    = errors.New("forbidden")
)

// Service answers "may this member do this in this group".
type Service interface {
	Authorize(ctx context.Context, memberID, groupID, object, action string) error
}

var Module = fx.Module("authorization",
	fx.Provide(NewEnforcer),
	fx.Provide(NewService),
)

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	Enforcer   *casbin.SyncedEnforcer
	MemberRepo memberdomain.Repository
}

type ServiceImpl struct {
	db         *gorm.DB
	log        *zap.Logger
	enforcer   *casbin.SyncedEnforcer
	memberRepo memberdomain.Repository
}

func NewEnforcer(db *gorm.DB) (*casbin.SyncedEnforcer, error) {
	adapter, err := gormadapter.NewAdapterByDB(db)
	if err != nil {
		return nil, err
	}
	m, err := model.NewModelFromString(modelText)
	if err != nil {
		return nil, err
	}
	enforcer, err := casbin.NewSyncedEnforcer(m, adapter)
	if err != nil {
		return nil, err
	}
	enforcer.EnableAutoSave(true)
	enforcer.EnableAutoBuildRoleLinks(true)
	if err := enforcer.LoadPolicy(); err != nil {
		return nil, err
	}
	if err := seedPolicies(enforcer); err != nil {
		return nil, err
	}
	enforcer.BuildRoleLinks()
	return enforcer, nil
}

func NewService(p Params) Service {
	return &ServiceImpl{
		db:         p.DB,
		log:        p.Log.Named("authorization.service"),
		enforcer:   p.Enforcer,
		memberRepo: p.MemberRepo,
	}
}

func (s *ServiceImpl) Authorize(ctx context.Context, memberID, groupID, object, action string) error {
	memberID = strings.TrimSpace(memberID)
	if memberID == "" {
		return ErrInvalidActor
	}
	groupID = strings.TrimSpace(groupID)
	if groupID == "" {
		return ErrInvalidGroup
	}

	subject, roleName, err := s.resolveMember(ctx, memberID, groupID)
	if err != nil {
		return err
	}

	domain := fmt.Sprintf("group:%s", groupID)
	if err := s.ensureGrouping(subject, roleName, domain); err != nil {
		return err
	}

	allowed, err := s.enforcer.Enforce(subject, domain, object, action)
	if err != nil {
		return err
	}
	if !allowed {
		s.log.Debug("authorization denied",
			zap.String("subject", subject),
			zap.String("group_id", groupID),
			zap.String("object", object),
			zap.String("action", action),
		)
		return ErrForbidden
	}
	return nil
}

func (s *ServiceImpl) resolveMember(ctx context.Context, memberID, groupID string) (string, string, error) {
	mID, err := snowflake.ParseString(memberID)
	if err != nil || mID == 0 {
		return "", "", ErrInvalidActor
	}
	gID, err := snowflake.ParseString(groupID)
	if err != nil || gID == 0 {
		return "", "", ErrInvalidGroup
	}

	role, err := s.memberRepo.RoleOf(ctx, s.db, gID, mID)
	if err != nil {
		return "", "", err
	}
	if role == nil {
		return "", "", ErrForbidden
	}
	subject := fmt.Sprintf("member:%s", mID.String())
	roleName := fmt.Sprintf("role:%s", strings.ToLower(string(*role)))
	return subject, roleName, nil
}

// ensureGrouping keeps the casbin grouping in step with group_members, which
// stays the source of truth for role assignment.
func (s *ServiceImpl) ensureGrouping(subject, roleName, domain string) error {
	existing, err := s.enforcer.GetFilteredGroupingPolicy(0, subject, "", domain)
	if err != nil {
		return err
	}
	for _, rule := range existing {
		if len(rule) < 2 || rule[1] == roleName {
			continue
		}
		params := make([]interface{}, 0, len(rule))
		for _, value := range rule {
			params = append(params, value)
		}
		_, _ = s.enforcer.RemoveGroupingPolicy(params...)
	}

	has, err := s.enforcer.HasGroupingPolicy(subject, roleName, domain)
	if err != nil {
		return err
	}
	if has {
		return nil
	}
	_, err = s.enforcer.AddGroupingPolicy(subject, roleName, domain)
	return err
}

func seedPolicies(enforcer *casbin.SyncedEnforcer) error {
	policies := [][]string{
		{"role:member", ObjectCatalog, ActionCatalogView},
		{"role:member", ObjectOrder, ActionOrderCreate},
		{"role:member", ObjectOrder, ActionOrderView},
		{"role:member", ObjectOrder, ActionOrderEdit},
		{"role:member", ObjectSale, ActionSaleView},

		// Managers run the group day to day.
		{"role:manager", ObjectCatalog, ActionCatalogView},
		{"role:manager", ObjectOrder, ActionOrderCreate},
		{"role:manager", ObjectOrder, ActionOrderView},
		{"role:manager", ObjectOrder, ActionOrderList},
		{"role:manager", ObjectOrder, ActionOrderEdit},
		{"role:manager", ObjectSale, ActionSaleCreate},
		{"role:manager", ObjectSale, ActionSaleView},
		{"role:manager", ObjectSale, ActionSalePay},
		{"role:manager", ObjectSettlement, ActionSettlementView},
		{"role:manager", ObjectSettlement, ActionSettlementExport},

		// Preparers run period settlement and collect payments.
		{"role:preparer", ObjectCatalog, ActionCatalogView},
		{"role:preparer", ObjectOrder, ActionOrderList},
		{"role:preparer", ObjectSettlement, ActionSettlementView},
		{"role:preparer", ObjectSettlement, ActionSettlementExport},
		{"role:preparer", ObjectSettlement, ActionSettlementSettle},
	}

	for _, policy := range policies {
		if _, err := enforcer.AddPolicy(policy); err != nil {
			return err
		}
	}
	return nil
}
