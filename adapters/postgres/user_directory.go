package postgresadapter

import (
	"context"
	"errors"
	"fmt"

	"authkit/domain/entities"

	"gorm.io/gorm"
)

// userDirectory reads the host application's user table through the
// configured table and column names. Only the id and the subject
// attribute are projected.
type userDirectory struct {
	s *Store
}

type userRow struct {
	ID      string `gorm:"column:id"`
	Subject string `gorm:"column:subject"`
}

func (r userDirectory) selectClause() string {
	return fmt.Sprintf("%s AS id, %s AS subject", r.s.users.IDColumn, r.s.users.SubjectColumn)
}

func (r userDirectory) FindByID(ctx context.Context, id string) (entities.User, bool, error) {
	var row userRow
	err := r.s.db.WithContext(ctx).
		Table(r.s.users.Table).
		Select(r.selectClause()).
		Where(fmt.Sprintf("%s = ?", r.s.users.IDColumn), id).
		Take(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.User{}, false, nil
		}
		return entities.User{}, false, err
	}
	return entities.User{ID: row.ID, Subject: row.Subject}, true, nil
}

func (r userDirectory) List(ctx context.Context) ([]entities.User, error) {
	var rows []userRow
	err := r.s.db.WithContext(ctx).
		Table(r.s.users.Table).
		Select(r.selectClause()).
		Order(fmt.Sprintf("%s ASC", r.s.users.SubjectColumn)).
		Scan(&rows).
		Error
	if err != nil {
		return nil, err
	}
	items := make([]entities.User, 0, len(rows))
	for _, row := range rows {
		items = append(items, entities.User{ID: row.ID, Subject: row.Subject})
	}
	return items, nil
}

func (r userDirectory) Delete(ctx context.Context, id string) error {
	return r.s.db.WithContext(ctx).
		Exec(fmt.Sprintf("DELETE FROM %s WHERE %s = ?", r.s.users.Table, r.s.users.IDColumn), id).
		Error
}
