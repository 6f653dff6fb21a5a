package sqlite

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/google/uuid"

	"student-api/internal/domain"
	"student-api/internal/repository"
)

const createStudentsTable = `
CREATE TABLE IF NOT EXISTS %s (
	seq INTEGER PRIMARY KEY AUTOINCREMENT,
	id TEXT NOT NULL UNIQUE,
	doc TEXT NOT NULL
);
`

// StudentRepository stores each record as a JSON document keyed by a UUID.
type StudentRepository struct {
	db    *sql.DB
	table string
}

func NewStudentRepository(db *sql.DB, table string) (repository.StudentRepository, error) {
	if err := checkTableName(table); err != nil {
		return nil, err
	}
	return &StudentRepository{db: db, table: table}, nil
}

func (r *StudentRepository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, fmt.Sprintf(createStudentsTable, r.table)); err != nil {
		return unavailable("create students table", err)
	}
	return nil
}

func (r *StudentRepository) List(ctx context.Context) ([]domain.Student, error) {
	rows, err := r.db.QueryContext(ctx, fmt.Sprintf(`SELECT id, doc FROM %s ORDER BY seq`, r.table))
	if err != nil {
		return nil, unavailable("list students", err)
	}
	defer rows.Close()

	students := make([]domain.Student, 0)
	for rows.Next() {
		var id, doc string
		if err := rows.Scan(&id, &doc); err != nil {
			return nil, unavailable("scan student", err)
		}
		fields, err := decodeDoc(doc)
		if err != nil {
			return nil, unavailable("decode student "+id, err)
		}
		students = append(students, domain.Student{ID: id, Fields: fields})
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("iterate students", err)
	}
	return students, nil
}

func (r *StudentRepository) Insert(ctx context.Context, fields domain.Fields) (string, error) {
	doc, err := encodeDoc(fields)
	if err != nil {
		return "", err
	}

	id := uuid.NewString()
	if _, err := r.db.ExecContext(ctx, fmt.Sprintf(`INSERT INTO %s (id, doc) VALUES (?, ?)`, r.table), id, doc); err != nil {
		return "", unavailable("insert student", err)
	}
	return id, nil
}

func (r *StudentRepository) UpdateByID(ctx context.Context, id string, fields domain.Fields) (int64, error) {
	id, err := parseID(id)
	if err != nil {
		return 0, err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, unavailable("begin update", err)
	}
	defer tx.Rollback()

	var doc string
	err = tx.QueryRowContext(ctx, fmt.Sprintf(`SELECT doc FROM %s WHERE id = ?`, r.table), id).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, unavailable("load student", err)
	}

	current, err := decodeDoc(doc)
	if err != nil {
		return 0, unavailable("decode student "+id, err)
	}

	changed := false
	for k, v := range fields {
		if old, ok := current[k]; ok && domain.Equal(old, v) {
			continue
		}
		current[k] = v
		changed = true
	}
	if !changed {
		return 0, nil
	}

	merged, err := encodeDoc(current)
	if err != nil {
		return 0, err
	}
	if _, err := tx.ExecContext(ctx, fmt.Sprintf(`UPDATE %s SET doc = ? WHERE id = ?`, r.table), merged, id); err != nil {
		return 0, unavailable("update student", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, unavailable("commit update", err)
	}
	return 1, nil
}

func (r *StudentRepository) DeleteByID(ctx context.Context, id string) (int64, error) {
	id, err := parseID(id)
	if err != nil {
		return 0, err
	}

	res, err := r.db.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE id = ?`, r.table), id)
	if err != nil {
		return 0, unavailable("delete student", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, unavailable("delete student rows affected", err)
	}
	return n, nil
}

func parseID(id string) (string, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return "", fmt.Errorf("%w: %q", repository.ErrInvalidID, id)
	}
	return parsed.String(), nil
}

func encodeDoc(fields domain.Fields) (string, error) {
	doc := make(map[string]json.RawMessage, len(fields))
	for k, v := range fields {
		raw, err := encodeValue(v)
		if err != nil {
			return "", fmt.Errorf("encode student field %q: %w", k, err)
		}
		doc[k] = raw
	}
	b, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("encode student: %w", err)
	}
	return string(b), nil
}

// encodeValue writes integral floats with a fraction so they decode as Float again.
func encodeValue(v domain.Value) (json.RawMessage, error) {
	switch t := v.(type) {
	case domain.Float:
		f := float64(t)
		if !math.IsInf(f, 0) && !math.IsNaN(f) && f == math.Trunc(f) && math.Abs(f) < 1e21 {
			return json.RawMessage(strconv.FormatFloat(f, 'f', -1, 64) + ".0"), nil
		}
		return json.Marshal(f)
	case domain.List:
		items := make([]json.RawMessage, len(t))
		for i := range t {
			raw, err := encodeValue(t[i])
			if err != nil {
				return nil, err
			}
			items[i] = raw
		}
		return json.Marshal(items)
	default:
		return json.Marshal(domain.NativeValue(v))
	}
}

func decodeDoc(doc string) (domain.Fields, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(doc)))
	dec.UseNumber()
	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, err
	}
	return domain.DecodeFields(raw)
}
