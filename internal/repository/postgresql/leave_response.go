package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/cmlabs-hris/hris-portal-go/internal/domain/leave"
	"github.com/cmlabs-hris/hris-portal-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

const leaveResponseColumns = `id, leave_id, author_id, author_name, author_role, content,
	is_system_note, is_edited, edited_at, created_at`

type leaveResponseRepositoryImpl struct {
	db *database.DB
}

func NewLeaveResponseRepository(db *database.DB) leave.ResponseRepository {
	return &leaveResponseRepositoryImpl{db: db}
}

func scanLeaveResponse(row pgx.Row) (leave.Response, error) {
	var resp leave.Response
	err := row.Scan(&resp.ID, &resp.LeaveID, &resp.AuthorID, &resp.AuthorName, &resp.AuthorRole, &resp.Content,
		&resp.IsSystemNote, &resp.IsEdited, &resp.EditedAt, &resp.CreatedAt)
	return resp, err
}

// Create implements leave.ResponseRepository.
func (r *leaveResponseRepositoryImpl) Create(ctx context.Context, resp leave.Response) (leave.Response, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO leave_responses (leave_id, author_id, author_name, author_role, content, is_system_note, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`

	err := q.QueryRow(ctx, query,
		resp.LeaveID, resp.AuthorID, resp.AuthorName, resp.AuthorRole, resp.Content, resp.IsSystemNote, resp.CreatedAt,
	).Scan(&resp.ID, &resp.CreatedAt)
	if err != nil {
		return leave.Response{}, fmt.Errorf("failed to create leave response: %w", err)
	}
	return resp, nil
}

// GetByID implements leave.ResponseRepository.
func (r *leaveResponseRepositoryImpl) GetByID(ctx context.Context, leaveID, id string) (leave.Response, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + leaveResponseColumns + ` FROM leave_responses WHERE leave_id = $1 AND id = $2`

	resp, err := scanLeaveResponse(q.QueryRow(ctx, query, leaveID, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return leave.Response{}, leave.ErrResponseNotFound
		}
		return leave.Response{}, fmt.Errorf("failed to get leave response: %w", err)
	}
	return resp, nil
}

// Update implements leave.ResponseRepository.
func (r *leaveResponseRepositoryImpl) Update(ctx context.Context, resp leave.Response) (leave.Response, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE leave_responses
		SET content = $1, is_edited = $2, edited_at = $3
		WHERE leave_id = $4 AND id = $5
	`

	tag, err := q.Exec(ctx, query, resp.Content, resp.IsEdited, resp.EditedAt, resp.LeaveID, resp.ID)
	if err != nil {
		return leave.Response{}, fmt.Errorf("failed to update leave response: %w", err)
	}
	if tag.RowsAffected() != 1 {
		return leave.Response{}, leave.ErrResponseNotFound
	}
	return resp, nil
}

// Delete implements leave.ResponseRepository.
func (r *leaveResponseRepositoryImpl) Delete(ctx context.Context, leaveID, id string) error {
	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx, `DELETE FROM leave_responses WHERE leave_id = $1 AND id = $2`, leaveID, id)
	if err != nil {
		return fmt.Errorf("failed to delete leave response: %w", err)
	}
	if tag.RowsAffected() != 1 {
		return leave.ErrResponseNotFound
	}
	return nil
}

// ListByLeave implements leave.ResponseRepository.
func (r *leaveResponseRepositoryImpl) ListByLeave(ctx context.Context, leaveID string) ([]leave.Response, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + leaveResponseColumns + ` FROM leave_responses WHERE leave_id = $1 ORDER BY created_at`

	rows, err := q.Query(ctx, query, leaveID)
	if err != nil {
		return nil, fmt.Errorf("failed to list leave responses: %w", err)
	}
	defer rows.Close()

	var responses []leave.Response
	for rows.Next() {
		resp, err := scanLeaveResponse(rows)
		if err != nil {
			return nil, err
		}
		responses = append(responses, resp)
	}
	return responses, rows.Err()
}
