package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ROHAN-089/namma-city/internal/domain"
)

// DepartmentRepository reads the municipal department directory. The SLA
// service uses it to validate scope filters.
type DepartmentRepository interface {
	GetByCode(ctx context.Context, code string) (*domain.Department, error)
	List(ctx context.Context) ([]domain.Department, error)
}

type departmentRepository struct {
	pool *pgxpool.Pool
}

// NewDepartmentRepository instantiates repository.
func NewDepartmentRepository(pool *pgxpool.Pool) DepartmentRepository {
	return &departmentRepository{pool: pool}
}

func (r *departmentRepository) GetByCode(ctx context.Context, code string) (*domain.Department, error) {
	const query = `
        SELECT id, code, name, is_active, created_at, updated_at
        FROM departments WHERE code=$1`
	var dept domain.Department
	if err := r.pool.QueryRow(ctx, query, code).Scan(
		&dept.ID,
		&dept.Code,
		&dept.Name,
		&dept.IsActive,
		&dept.CreatedAt,
		&dept.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &dept, nil
}

func (r *departmentRepository) List(ctx context.Context) ([]domain.Department, error) {
	const query = `
        SELECT id, code, name, is_active, created_at, updated_at
        FROM departments ORDER BY code`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Department
	for rows.Next() {
		var dept domain.Department
		if err := rows.Scan(
			&dept.ID,
			&dept.Code,
			&dept.Name,
			&dept.IsActive,
			&dept.CreatedAt,
			&dept.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, dept)
	}
	return result, rows.Err()
}
