package postgresadapter

import (
	"context"

	"authkit/domain/entities"
	"authkit/ports"

	"gorm.io/gorm"
)

type denormRepo struct {
	s *Store
}

func (r denormRepo) DistinctSubjectsByRoleKey(ctx context.Context, roleKey string) ([]string, error) {
	var subjects []string
	err := r.s.db.WithContext(ctx).
		Model(&denormModel{}).
		Distinct("subject").
		Where("role_key = ?", roleKey).
		Order("subject ASC").
		Pluck("subject", &subjects).
		Error
	if err != nil {
		return nil, err
	}
	return subjects, nil
}

func (r denormRepo) GrantedKeys(ctx context.Context, subject string, keys []string) ([]string, error) {
	if len(keys) == 0 {
		return []string{}, nil
	}
	var granted []string
	err := r.s.db.WithContext(ctx).
		Model(&denormModel{}).
		Distinct("policy_map_key").
		Where("subject = ? AND policy_map_key IN ?", subject, keys).
		Order("policy_map_key ASC").
		Pluck("policy_map_key", &granted).
		Error
	if err != nil {
		return nil, err
	}
	return granted, nil
}

func (r denormRepo) Count(ctx context.Context, filter ports.DenormFilter) (int64, error) {
	var count int64
	err := applyDenormFilter(r.s.db.WithContext(ctx).Model(&denormModel{}), filter).
		Count(&count).
		Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (r denormRepo) Insert(ctx context.Context, rows []entities.UserPolicyDenorm) error {
	if len(rows) == 0 {
		return nil
	}
	models := make([]denormModel, 0, len(rows))
	for _, row := range rows {
		models = append(models, denormModelFromEntity(row))
	}
	return r.s.db.WithContext(ctx).Create(&models).Error
}

func (r denormRepo) Delete(ctx context.Context, filter ports.DenormFilter) error {
	return applyDenormFilter(r.s.db.WithContext(ctx), filter).
		Delete(&denormModel{}).
		Error
}

func applyDenormFilter(tx *gorm.DB, filter ports.DenormFilter) *gorm.DB {
	if filter.Subject != "" {
		tx = tx.Where("subject = ?", filter.Subject)
	}
	if filter.PolicyMapKey != "" {
		tx = tx.Where("policy_map_key = ?", filter.PolicyMapKey)
	}
	if filter.RoleKey != "" {
		tx = tx.Where("role_key = ?", filter.RoleKey)
	}
	if filter.DirectOnly {
		tx = tx.Where("role_key IS NULL")
	}
	return tx
}
