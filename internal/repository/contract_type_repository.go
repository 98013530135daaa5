package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/gurkanbulca/taskdesk/internal/models"
)

type ContractTypeRepository struct {
	db *sqlx.DB
}

func NewContractTypeRepository(db *sqlx.DB) *ContractTypeRepository {
	return &ContractTypeRepository{db: db}
}

// Create stores a contract type. Codes are unique.
func (r *ContractTypeRepository) Create(ctx context.Context, in models.CreateContractTypeRequest) (*models.ContractType, error) {
	var n int
	if err := r.db.GetContext(ctx, &n, r.db.Rebind(`SELECT COUNT(*) FROM contract_types WHERE code = ?`), in.ContractTypeCode); err != nil {
		return nil, fmt.Errorf("check contract type code: %w", err)
	}
	if n > 0 {
		return nil, ErrDuplicateCode
	}

	ct := models.ContractType{
		ID:               uuid.NewString(),
		ContractTypeCode: in.ContractTypeCode,
		ContractTypeName: in.ContractTypeName,
	}
	if _, err := r.db.ExecContext(ctx, r.db.Rebind(`INSERT INTO contract_types (id, code, name) VALUES (?, ?, ?)`),
		ct.ID, ct.ContractTypeCode, ct.ContractTypeName); err != nil {
		return nil, fmt.Errorf("insert contract type: %w", err)
	}
	return &ct, nil
}

func (r *ContractTypeRepository) List(ctx context.Context) ([]models.ContractType, error) {
	items := []models.ContractType{}
	if err := r.db.SelectContext(ctx, &items,
		`SELECT id, code AS contracttypecode, name AS contracttypename FROM contract_types ORDER BY code`); err != nil {
		return nil, fmt.Errorf("list contract types: %w", err)
	}
	return items, nil
}

type StatusCatalogRepository struct {
	db *sqlx.DB
}

func NewStatusCatalogRepository(db *sqlx.DB) *StatusCatalogRepository {
	return &StatusCatalogRepository{db: db}
}

// Replace swaps the whole catalog for items.
func (r *StatusCatalogRepository) Replace(ctx context.Context, items []models.StatusCatalog) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM status_catalogs`); err != nil {
		return rollback(tx, fmt.Errorf("clear status catalog: %w", err))
	}
	for _, it := range items {
		if _, err := tx.ExecContext(ctx, tx.Rebind(`INSERT INTO status_catalogs (id, status_name) VALUES (?, ?)`), it.ID, it.StatusName); err != nil {
			return rollback(tx, fmt.Errorf("insert status catalog: %w", err))
		}
	}
	return tx.Commit()
}

func (r *StatusCatalogRepository) List(ctx context.Context) ([]models.StatusCatalog, error) {
	items := []models.StatusCatalog{}
	if err := r.db.SelectContext(ctx, &items, `SELECT id, status_name AS statusname FROM status_catalogs ORDER BY id`); err != nil {
		return nil, fmt.Errorf("list status catalog: %w", err)
	}
	return items, nil
}
