package postgresadapter

import (
	"context"
	"errors"

	"authkit/domain/entities"
	domainerrors "authkit/domain/errors"
	"authkit/ports"

	"gorm.io/gorm"
)

type policyRepo struct {
	s *Store
}

func (r policyRepo) FindByID(ctx context.Context, id string) (entities.Policy, bool, error) {
	var row policyModel
	err := r.s.db.WithContext(ctx).
		Where("id = ?", id).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Policy{}, false, nil
		}
		return entities.Policy{}, false, err
	}
	return row.toEntity(), true, nil
}

func (r policyRepo) FindByResourceAction(ctx context.Context, resource, action string) (entities.Policy, bool, error) {
	var row policyModel
	err := r.s.db.WithContext(ctx).
		Where("resource = ? AND action = ?", resource, action).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Policy{}, false, nil
		}
		return entities.Policy{}, false, err
	}
	return row.toEntity(), true, nil
}

func (r policyRepo) List(ctx context.Context, filter ports.PolicyFilter) ([]entities.Policy, error) {
	tx := r.s.db.WithContext(ctx).Model(&policyModel{})
	if len(filter.IDs) > 0 {
		tx = tx.Where("id IN ?", filter.IDs)
	}
	if filter.Resource != "" {
		tx = tx.Where("resource = ?", filter.Resource)
	}
	if filter.Action != "" {
		tx = tx.Where("action = ?", filter.Action)
	}

	var rows []policyModel
	if err := tx.Order("resource ASC, action ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	items := make([]entities.Policy, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r policyRepo) Create(ctx context.Context, policy entities.Policy) (entities.Policy, error) {
	row := policyModelFromEntity(policy)
	if err := r.s.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return entities.Policy{}, domainerrors.ErrPolicyExists
		}
		return entities.Policy{}, err
	}
	return policy, nil
}
