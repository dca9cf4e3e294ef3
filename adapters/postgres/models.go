package postgresadapter

import (
	"authkit/domain/entities"

	"gorm.io/gorm"
)

type roleModel struct {
	ID       string `gorm:"column:id;primaryKey"`
	Name     string `gorm:"column:name;uniqueIndex:ux_roles_name"`
	Revision int64  `gorm:"column:revision"`
}

func (roleModel) TableName() string {
	return "authkit_roles"
}

func (m roleModel) toEntity(policies []entities.Policy) entities.Role {
	if policies == nil {
		policies = []entities.Policy{}
	}
	return entities.Role{
		ID:       m.ID,
		Name:     m.Name,
		Policies: policies,
		Revision: m.Revision,
	}
}

type policyModel struct {
	ID       string `gorm:"column:id;primaryKey"`
	Resource string `gorm:"column:resource;uniqueIndex:ux_policies_resource_action"`
	Action   string `gorm:"column:action;uniqueIndex:ux_policies_resource_action"`
}

func (policyModel) TableName() string {
	return "authkit_policies"
}

func (m policyModel) toEntity() entities.Policy {
	return entities.Policy{ID: m.ID, Resource: m.Resource, Action: m.Action}
}

func policyModelFromEntity(item entities.Policy) policyModel {
	return policyModel{ID: item.ID, Resource: item.Resource, Action: item.Action}
}

type rolePolicyModel struct {
	RoleID   string `gorm:"column:role_id;primaryKey"`
	PolicyID string `gorm:"column:policy_id;primaryKey"`
}

func (rolePolicyModel) TableName() string {
	return "authkit_role_policies"
}

type userPermissionsModel struct {
	ID       string `gorm:"column:id;primaryKey"`
	Subject  string `gorm:"column:subject;uniqueIndex:ux_user_permissions_subject"`
	Revision int64  `gorm:"column:revision"`
}

func (userPermissionsModel) TableName() string {
	return "authkit_user_permissions"
}

type userPermissionRoleModel struct {
	UserPermissionID string `gorm:"column:user_permission_id;primaryKey"`
	RoleID           string `gorm:"column:role_id;primaryKey;index:ix_user_permission_roles_role"`
}

func (userPermissionRoleModel) TableName() string {
	return "authkit_user_permission_roles"
}

type userPermissionPolicyModel struct {
	UserPermissionID string `gorm:"column:user_permission_id;primaryKey"`
	PolicyID         string `gorm:"column:policy_id;primaryKey"`
}

func (userPermissionPolicyModel) TableName() string {
	return "authkit_user_permission_policies"
}

type denormModel struct {
	ID           string  `gorm:"column:id;primaryKey"`
	Subject      string  `gorm:"column:subject;index:ix_user_policies_denorm_subject"`
	PolicyMapKey string  `gorm:"column:policy_map_key;index:ix_user_policies_denorm_key"`
	RoleKey      *string `gorm:"column:role_key;index:ix_user_policies_denorm_role"`
}

func (denormModel) TableName() string {
	return "authkit_user_policies_denorm"
}

func (m denormModel) toEntity() entities.UserPolicyDenorm {
	return entities.UserPolicyDenorm{
		ID:           m.ID,
		Subject:      m.Subject,
		PolicyMapKey: m.PolicyMapKey,
		RoleKey:      m.RoleKey,
	}
}

func denormModelFromEntity(item entities.UserPolicyDenorm) denormModel {
	return denormModel{
		ID:           item.ID,
		Subject:      item.Subject,
		PolicyMapKey: item.PolicyMapKey,
		RoleKey:      item.RoleKey,
	}
}

// Migrate creates or updates the tables this adapter owns. The host user
// table is never touched.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&roleModel{},
		&policyModel{},
		&rolePolicyModel{},
		&userPermissionsModel{},
		&userPermissionRoleModel{},
		&userPermissionPolicyModel{},
		&denormModel{},
	)
}
