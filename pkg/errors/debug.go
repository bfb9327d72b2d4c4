package errors

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

// ErrorDump is the log-friendly breakdown of an error chain. It is never
// written to clients.
type ErrorDump struct {
	Message   string   `json:"message"`
	Code      Code     `json:"code,omitempty"`
	Retryable bool     `json:"retryable,omitempty"`
	Chain     []string `json:"chain,omitempty"`
	Postgres  *PGError `json:"postgres,omitempty"`
}

// PGError carries the server-side fields of a Postgres error from either
// driver.
type PGError struct {
	Code       string `json:"code"`
	Message    string `json:"message,omitempty"`
	Detail     string `json:"detail,omitempty"`
	Table      string `json:"table,omitempty"`
	Column     string `json:"column,omitempty"`
	Constraint string `json:"constraint,omitempty"`
}

// Fields flattens the Postgres error into pg_* log fields.
func (p *PGError) Fields() map[string]any {
	if p == nil {
		return nil
	}
	return map[string]any{
		"pg_code":       p.Code,
		"pg_message":    p.Message,
		"pg_detail":     p.Detail,
		"pg_table":      p.Table,
		"pg_column":     p.Column,
		"pg_constraint": p.Constraint,
	}
}

func Dump(err error) ErrorDump {
	if err == nil {
		return ErrorDump{}
	}

	d := ErrorDump{Message: err.Error()}
	if te := As(err); te != nil {
		d.Code = te.Code()
		d.Retryable = MetadataFor(te.Code()).Retryable
	}
	for e := err; e != nil; e = errors.Unwrap(e) {
		d.Chain = append(d.Chain, fmt.Sprintf("%T: %v", e, e))
	}
	d.Postgres = postgresError(err)
	return d
}

func postgresError(err error) *PGError {
	var pgxErr *pgconn.PgError
	if errors.As(err, &pgxErr) {
		return &PGError{
			Code:       pgxErr.Code,
			Message:    pgxErr.Message,
			Detail:     pgxErr.Detail,
			Table:      pgxErr.TableName,
			Column:     pgxErr.ColumnName,
			Constraint: pgxErr.ConstraintName,
		}
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return &PGError{
			Code:       string(pqErr.Code),
			Message:    pqErr.Message,
			Detail:     pqErr.Detail,
			Table:      pqErr.Table,
			Column:     pqErr.Column,
			Constraint: pqErr.Constraint,
		}
	}
	return nil
}
