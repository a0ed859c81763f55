package form

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"
)

// SQLStore persists forms and responses via database/sql. Works against both
// sqlite (modernc) and postgres (pgx stdlib); $N placeholders are understood
// by both drivers.
type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore { return &SQLStore{db: db} }

func (s *SQLStore) PutForm(ctx context.Context, f Form) error {
	qj, err := json.Marshal(f.Questions)
	if err != nil {
		return err
	}
	now := time.Now().Unix()
	if f.CreatedAt == 0 {
		f.CreatedAt = now
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO forms (id,title,description,header_image,questions_json,is_published,owner_id,created_at,updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		ON CONFLICT (id) DO UPDATE SET title=EXCLUDED.title, description=EXCLUDED.description,
			header_image=EXCLUDED.header_image, questions_json=EXCLUDED.questions_json,
			is_published=EXCLUDED.is_published, updated_at=EXCLUDED.updated_at`,
		f.ID, f.Title, f.Description, f.HeaderImage, string(qj), f.IsPublished, f.OwnerID, f.CreatedAt, now)
	return err
}

func (s *SQLStore) GetForm(ctx context.Context, id string) (Form, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id,title,description,header_image,questions_json,is_published,owner_id,created_at,updated_at
		FROM forms WHERE id=$1`, id)
	return scanForm(row)
}

func (s *SQLStore) ListFormsByOwner(ctx context.Context, ownerID string) ([]Form, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id,title,description,header_image,questions_json,is_published,owner_id,created_at,updated_at
		FROM forms WHERE owner_id=$1 ORDER BY updated_at DESC`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Form
	for rows.Next() {
		f, err := scanForm(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

func (s *SQLStore) DeleteForm(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM forms WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrFormNotFound
	}
	return nil
}

func (s *SQLStore) InsertResponseIfAbsent(ctx context.Context, r Response) (Response, bool, error) {
	aj, err := json.Marshal(r.Answers)
	if err != nil {
		return Response{}, false, err
	}
	sj, err := json.Marshal(r.Score)
	if err != nil {
		return Response{}, false, err
	}
	// The UNIQUE(form_id,user_id) constraint is the exactly-once guarantee:
	// the race loser inserts zero rows and re-reads the winner's row.
	res, err := s.db.ExecContext(ctx, `INSERT INTO responses (id,form_id,user_id,answers_json,score_json,submitted_at)
		VALUES ($1,$2,$3,$4,$5,$6)
		ON CONFLICT (form_id,user_id) DO NOTHING`,
		r.ID, r.FormID, r.RespondentID, string(aj), string(sj), r.SubmittedAt)
	if err != nil {
		return Response{}, false, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		existing, err := s.GetResponse(ctx, r.FormID, r.RespondentID)
		if err != nil {
			return Response{}, false, err
		}
		return existing, false, nil
	}
	return r, true, nil
}

func (s *SQLStore) GetResponse(ctx context.Context, formID, respondentID string) (Response, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id,form_id,user_id,answers_json,score_json,submitted_at
		FROM responses WHERE form_id=$1 AND user_id=$2`, formID, respondentID)
	return scanResponse(row)
}

func (s *SQLStore) ListResponses(ctx context.Context, formID string) ([]Response, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id,form_id,user_id,answers_json,score_json,submitted_at
		FROM responses WHERE form_id=$1 ORDER BY submitted_at DESC`, formID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Response
	for rows.Next() {
		r, err := scanResponse(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

type rowScanner interface{ Scan(dest ...any) error }

func scanForm(row rowScanner) (Form, error) {
	var f Form
	var qjson string
	if err := row.Scan(&f.ID, &f.Title, &f.Description, &f.HeaderImage, &qjson, &f.IsPublished, &f.OwnerID, &f.CreatedAt, &f.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Form{}, ErrFormNotFound
		}
		return Form{}, err
	}
	if err := json.Unmarshal([]byte(qjson), &f.Questions); err != nil {
		return Form{}, err
	}
	return f, nil
}

func scanResponse(row rowScanner) (Response, error) {
	var r Response
	var ajson, sjson string
	if err := row.Scan(&r.ID, &r.FormID, &r.RespondentID, &ajson, &sjson, &r.SubmittedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Response{}, ErrResponseNotFound
		}
		return Response{}, err
	}
	if err := json.Unmarshal([]byte(ajson), &r.Answers); err != nil {
		r.Answers = AnswerSet{}
	}
	if err := json.Unmarshal([]byte(sjson), &r.Score); err != nil {
		return Response{}, err
	}
	return r, nil
}
