package postgresadapter

import (
	"context"
	"errors"

	"authkit/domain/entities"
	domainerrors "authkit/domain/errors"

	"gorm.io/gorm"
)

type permsRepo struct {
	s *Store
}

func (r permsRepo) FindBySubject(ctx context.Context, subject string) (entities.UserPermissions, bool, error) {
	var row userPermissionsModel
	err := r.s.db.WithContext(ctx).
		Where("subject = ?", subject).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.UserPermissions{}, false, nil
		}
		return entities.UserPermissions{}, false, err
	}

	roles, err := r.loadRoles(ctx, row.ID)
	if err != nil {
		return entities.UserPermissions{}, false, err
	}
	policies, err := r.loadPolicies(ctx, row.ID)
	if err != nil {
		return entities.UserPermissions{}, false, err
	}

	return entities.UserPermissions{
		ID:       row.ID,
		Subject:  row.Subject,
		Roles:    roles,
		Policies: policies,
		Revision: row.Revision,
	}, true, nil
}

func (r permsRepo) Create(ctx context.Context, perms entities.UserPermissions) (entities.UserPermissions, error) {
	perms.Revision = 1
	err := r.s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row := userPermissionsModel{ID: perms.ID, Subject: perms.Subject, Revision: perms.Revision}
		if err := tx.Create(&row).Error; err != nil {
			if isUniqueViolation(err) {
				return domainerrors.ErrConcurrentModification
			}
			return err
		}
		return replacePermissionAssociations(tx, perms)
	})
	if err != nil {
		return entities.UserPermissions{}, err
	}
	return perms, nil
}

func (r permsRepo) Save(ctx context.Context, perms entities.UserPermissions) (entities.UserPermissions, error) {
	saved := perms
	err := r.s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&userPermissionsModel{}).
			Where("id = ? AND revision = ?", perms.ID, perms.Revision).
			Update("revision", perms.Revision+1)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			var count int64
			if err := tx.Model(&userPermissionsModel{}).Where("id = ?", perms.ID).Count(&count).Error; err != nil {
				return err
			}
			if count == 0 {
				return domainerrors.ErrUserNotFound
			}
			return domainerrors.ErrConcurrentModification
		}
		saved.Revision = perms.Revision + 1
		return replacePermissionAssociations(tx, perms)
	})
	if err != nil {
		return entities.UserPermissions{}, err
	}
	return saved, nil
}

func (r permsRepo) DeleteBySubject(ctx context.Context, subject string) error {
	return r.s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row userPermissionsModel
		err := tx.Where("subject = ?", subject).First(&row).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}
		if err := tx.Where("user_permission_id = ?", row.ID).Delete(&userPermissionRoleModel{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_permission_id = ?", row.ID).Delete(&userPermissionPolicyModel{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", row.ID).Delete(&userPermissionsModel{}).Error
	})
}

func (r permsRepo) CountSubjectsWithRole(ctx context.Context, roleID string) (int64, error) {
	var count int64
	err := r.s.db.WithContext(ctx).
		Model(&userPermissionRoleModel{}).
		Where("role_id = ?", roleID).
		Count(&count).
		Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (r permsRepo) RemoveRoleFromAll(ctx context.Context, roleID string) (int64, error) {
	var affected int64
	err := r.s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var ids []string
		err := tx.Model(&userPermissionRoleModel{}).
			Where("role_id = ?", roleID).
			Pluck("user_permission_id", &ids).
			Error
		if err != nil {
			return err
		}
		if len(ids) == 0 {
			return nil
		}

		if err := tx.Where("role_id = ?", roleID).Delete(&userPermissionRoleModel{}).Error; err != nil {
			return err
		}
		result := tx.Model(&userPermissionsModel{}).
			Where("id IN ?", ids).
			Update("revision", gorm.Expr("revision + 1"))
		if result.Error != nil {
			return result.Error
		}
		affected = result.RowsAffected
		return nil
	})
	if err != nil {
		return 0, err
	}
	return affected, nil
}

func (r permsRepo) loadRoles(ctx context.Context, permissionID string) ([]entities.Role, error) {
	var rows []roleModel
	err := r.s.db.WithContext(ctx).
		Table("authkit_roles AS ro").
		Select("ro.id, ro.name, ro.revision").
		Joins("JOIN authkit_user_permission_roles AS ur ON ur.role_id = ro.id").
		Where("ur.user_permission_id = ?", permissionID).
		Order("ro.name ASC").
		Scan(&rows).
		Error
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
	}
	policies, err := rolePolicies(ctx, r.s.db, ids)
	if err != nil {
		return nil, err
	}

	roles := make([]entities.Role, 0, len(rows))
	for _, row := range rows {
		roles = append(roles, row.toEntity(policies[row.ID]))
	}
	return roles, nil
}

func (r permsRepo) loadPolicies(ctx context.Context, permissionID string) ([]entities.Policy, error) {
	var rows []policyModel
	err := r.s.db.WithContext(ctx).
		Table("authkit_policies AS p").
		Select("p.id, p.resource, p.action").
		Joins("JOIN authkit_user_permission_policies AS up ON up.policy_id = p.id").
		Where("up.user_permission_id = ?", permissionID).
		Order("p.resource ASC, p.action ASC").
		Scan(&rows).
		Error
	if err != nil {
		return nil, err
	}
	policies := make([]entities.Policy, 0, len(rows))
	for _, row := range rows {
		policies = append(policies, row.toEntity())
	}
	return policies, nil
}

func replacePermissionAssociations(tx *gorm.DB, perms entities.UserPermissions) error {
	if err := tx.Where("user_permission_id = ?", perms.ID).Delete(&userPermissionRoleModel{}).Error; err != nil {
		return err
	}
	if err := tx.Where("user_permission_id = ?", perms.ID).Delete(&userPermissionPolicyModel{}).Error; err != nil {
		return err
	}

	if len(perms.Roles) > 0 {
		rows := make([]userPermissionRoleModel, 0, len(perms.Roles))
		for _, role := range perms.Roles {
			rows = append(rows, userPermissionRoleModel{UserPermissionID: perms.ID, RoleID: role.ID})
		}
		if err := tx.Create(&rows).Error; err != nil {
			return err
		}
	}
	if len(perms.Policies) > 0 {
		rows := make([]userPermissionPolicyModel, 0, len(perms.Policies))
		for _, policy := range perms.Policies {
			rows = append(rows, userPermissionPolicyModel{UserPermissionID: perms.ID, PolicyID: policy.ID})
		}
		if err := tx.Create(&rows).Error; err != nil {
			return err
		}
	}
	return nil
}
