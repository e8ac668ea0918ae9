package membershiprepo

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/federation-tools/membership-checker/internal/adapters/postgres"
	"github.com/federation-tools/membership-checker/internal/domain"
	"github.com/federation-tools/membership-checker/internal/ports/out/membershiprepo"
)

var membershipColumns = []string{
	"last_name",
	"first_name",
	"gender",
	"birthdate",
	"age",
	"membership_number",
	"email_address",
	"payed",
	"end_date",
	"expired",
	"club",
	"structure_code",
}

// Repo is a Postgres implementation of membershiprepo.Repository.
type Repo struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

func (r *Repo) ReplaceAll(ctx context.Context, imp membershiprepo.Import, ms []domain.Membership) error {
	if r.pool == nil {
		return errors.New("nil postgres pool")
	}
	id, err := uuid.Parse(string(imp.ID))
	if err != nil {
		return fmt.Errorf("invalid import id: %w", err)
	}

	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM memberships`); err != nil {
			return err
		}

		rows := make([][]any, 0, len(ms))
		for _, m := range ms {
			rows = append(rows, []any{
				m.LastName,
				m.FirstName,
				m.Gender,
				dateOrNil(m.Birthdate),
				m.Age,
				m.MembershipNumber,
				m.Email,
				m.Payed,
				dateOnly(m.EndDate),
				m.Expired,
				m.Club,
				m.StructureCode,
			})
		}
		if _, err := tx.CopyFrom(ctx, pgx.Identifier{"memberships"}, membershipColumns, pgx.CopyFromRows(rows)); err != nil {
			return fmt.Errorf("copy memberships: %w", err)
		}

		_, err := tx.Exec(ctx, `
			INSERT INTO membership_imports (external_id, imported_at, row_count)
			VALUES ($1, $2, $3)
		`, id, imp.ImportedAt.UTC(), len(ms))
		if err != nil {
			if pe, ok := postgres.AsPgError(err); ok && pe.Code == postgres.UniqueViolationCode {
				return fmt.Errorf("import %s already recorded: %w", imp.ID, err)
			}
			return err
		}
		return nil
	})
}

func (r *Repo) List(ctx context.Context) ([]domain.Membership, error) {
	if r.pool == nil {
		return nil, errors.New("nil postgres pool")
	}
	rows, err := r.pool.Query(ctx, `
		SELECT
			last_name,
			first_name,
			gender,
			birthdate,
			age,
			membership_number,
			email_address,
			payed,
			end_date,
			expired,
			club,
			structure_code
		FROM memberships
		ORDER BY membership_number COLLATE "C", last_name COLLATE "C", first_name COLLATE "C", end_date, id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.Membership, 0)
	for rows.Next() {
		var (
			m         domain.Membership
			birthdate *time.Time
			age       *int32
		)
		if err := rows.Scan(
			&m.LastName,
			&m.FirstName,
			&m.Gender,
			&birthdate,
			&age,
			&m.MembershipNumber,
			&m.Email,
			&m.Payed,
			&m.EndDate,
			&m.Expired,
			&m.Club,
			&m.StructureCode,
		); err != nil {
			return nil, err
		}
		if birthdate != nil {
			bd := dateOnly(*birthdate)
			m.Birthdate = &bd
		}
		if age != nil {
			v := int(*age)
			m.Age = &v
		}
		m.EndDate = dateOnly(m.EndDate)
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	slices.SortStableFunc(out, domain.CompareMemberships)
	return out, nil
}

func (r *Repo) LastImport(ctx context.Context) (membershiprepo.Import, error) {
	if r.pool == nil {
		return membershiprepo.Import{}, errors.New("nil postgres pool")
	}
	var (
		id  uuid.UUID
		imp membershiprepo.Import
	)
	err := r.pool.QueryRow(ctx, `
		SELECT external_id, imported_at, row_count
		FROM membership_imports
		ORDER BY imported_at DESC, id DESC
		LIMIT 1
	`).Scan(&id, &imp.ImportedAt, &imp.Count)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return membershiprepo.Import{}, membershiprepo.ErrNotFound
		}
		return membershiprepo.Import{}, err
	}
	imp.ID = domain.ImportID(id.String())
	imp.ImportedAt = imp.ImportedAt.UTC()
	return imp, nil
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func dateOrNil(t *time.Time) any {
	if t == nil {
		return nil
	}
	return dateOnly(*t)
}
