package postgresadapter

import (
	"context"
	"errors"

	"authkit/domain/entities"
	domainerrors "authkit/domain/errors"
	"authkit/ports"

	"gorm.io/gorm"
)

type roleRepo struct {
	s *Store
}

func (r roleRepo) FindByID(ctx context.Context, id string) (entities.Role, bool, error) {
	var row roleModel
	err := r.s.db.WithContext(ctx).
		Where("id = ?", id).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Role{}, false, nil
		}
		return entities.Role{}, false, err
	}
	policies, err := rolePolicies(ctx, r.s.db, []string{row.ID})
	if err != nil {
		return entities.Role{}, false, err
	}
	return row.toEntity(policies[row.ID]), true, nil
}

func (r roleRepo) FindByName(ctx context.Context, name string) (entities.Role, bool, error) {
	var row roleModel
	err := r.s.db.WithContext(ctx).
		Where("name = ?", name).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Role{}, false, nil
		}
		return entities.Role{}, false, err
	}
	policies, err := rolePolicies(ctx, r.s.db, []string{row.ID})
	if err != nil {
		return entities.Role{}, false, err
	}
	return row.toEntity(policies[row.ID]), true, nil
}

func (r roleRepo) List(ctx context.Context, filter ports.RoleFilter) ([]entities.Role, error) {
	tx := r.s.db.WithContext(ctx).Model(&roleModel{})
	if len(filter.IDs) > 0 {
		tx = tx.Where("id IN ?", filter.IDs)
	}
	if filter.Name != "" {
		tx = tx.Where("name = ?", filter.Name)
	}

	var rows []roleModel
	if err := tx.Order("name ASC").Find(&rows).Error; err != nil {
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

	items := make([]entities.Role, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity(policies[row.ID]))
	}
	return items, nil
}

func (r roleRepo) Create(ctx context.Context, role entities.Role) (entities.Role, error) {
	role.Revision = 1
	err := r.s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row := roleModel{ID: role.ID, Name: role.Name, Revision: role.Revision}
		if err := tx.Create(&row).Error; err != nil {
			if isUniqueViolation(err) {
				return domainerrors.ErrRoleExists
			}
			return err
		}
		return replaceRolePolicies(tx, role)
	})
	if err != nil {
		return entities.Role{}, err
	}
	return role, nil
}

func (r roleRepo) Save(ctx context.Context, role entities.Role) (entities.Role, error) {
	saved := role
	err := r.s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&roleModel{}).
			Where("id = ? AND revision = ?", role.ID, role.Revision).
			Update("revision", role.Revision+1)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			var count int64
			if err := tx.Model(&roleModel{}).Where("id = ?", role.ID).Count(&count).Error; err != nil {
				return err
			}
			if count == 0 {
				return domainerrors.ErrRoleNotFound
			}
			return domainerrors.ErrConcurrentModification
		}
		saved.Revision = role.Revision + 1
		return replaceRolePolicies(tx, role)
	})
	if err != nil {
		return entities.Role{}, err
	}
	return saved, nil
}

func (r roleRepo) Delete(ctx context.Context, id string) error {
	return r.s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("role_id = ?", id).Delete(&rolePolicyModel{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&roleModel{}).Error
	})
}

func replaceRolePolicies(tx *gorm.DB, role entities.Role) error {
	if err := tx.Where("role_id = ?", role.ID).Delete(&rolePolicyModel{}).Error; err != nil {
		return err
	}
	if len(role.Policies) == 0 {
		return nil
	}
	rows := make([]rolePolicyModel, 0, len(role.Policies))
	for _, policy := range role.Policies {
		rows = append(rows, rolePolicyModel{RoleID: role.ID, PolicyID: policy.ID})
	}
	return tx.Create(&rows).Error
}

type rolePolicyRow struct {
	RoleID   string `gorm:"column:role_id"`
	ID       string `gorm:"column:id"`
	Resource string `gorm:"column:resource"`
	Action   string `gorm:"column:action"`
}

func rolePolicies(ctx context.Context, db *gorm.DB, roleIDs []string) (map[string][]entities.Policy, error) {
	byRole := make(map[string][]entities.Policy, len(roleIDs))
	if len(roleIDs) == 0 {
		return byRole, nil
	}

	var rows []rolePolicyRow
	err := db.WithContext(ctx).
		Table("authkit_role_policies AS rp").
		Select("rp.role_id, p.id, p.resource, p.action").
		Joins("JOIN authkit_policies AS p ON p.id = rp.policy_id").
		Where("rp.role_id IN ?", roleIDs).
		Order("p.resource ASC, p.action ASC").
		Scan(&rows).
		Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		byRole[row.RoleID] = append(byRole[row.RoleID], entities.Policy{
			ID:       row.ID,
			Resource: row.Resource,
			Action:   row.Action,
		})
	}
	return byRole, nil
}
