/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package database

import (
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

// ErrConnection marks failures to establish the pooled connection.
var ErrConnection = errors.New("database connection failed")

// SQLError classifies driver failures independent of the vendor.
type SQLError int

const (
	UnknownErr SQLError = iota
	NoRowsErr
	NoColumnErr
	NoTableErr
	DuplicateKeyErr
	NotNullViolationErr
	ForeignKeyViolationErr
	CheckConstraintViolationErr
	DataTruncatedErr
	InvalidTypeCastErr
	SyntaxErr
)

func (e SQLError) String() string {
	switch e {
	case NoRowsErr:
		return "no_rows"
	case NoColumnErr:
		return "no_column"
	case NoTableErr:
		return "no_table"
	case DuplicateKeyErr:
		return "duplicate_key"
	case NotNullViolationErr:
		return "not_null_violation"
	case ForeignKeyViolationErr:
		return "foreign_key_violation"
	case CheckConstraintViolationErr:
		return "check_violation"
	case DataTruncatedErr:
		return "data_truncated"
	case InvalidTypeCastErr:
		return "invalid_type_cast"
	case SyntaxErr:
		return "syntax"
	default:
		return "unknown"
	}
}

var mysqlCodes = map[uint16]SQLError{
	1054: NoColumnErr,
	1146: NoTableErr,
	1062: DuplicateKeyErr,
	1048: NotNullViolationErr,
	1216: ForeignKeyViolationErr,
	1217: ForeignKeyViolationErr,
	1451: ForeignKeyViolationErr,
	1452: ForeignKeyViolationErr,
	3819: CheckConstraintViolationErr,
	1265: DataTruncatedErr,
	1406: DataTruncatedErr,
	1064: SyntaxErr,
}

var sqlStates = map[string]SQLError{
	"42703": NoColumnErr,
	"42P01": NoTableErr,
	"23505": DuplicateKeyErr,
	"23502": NotNullViolationErr,
	"23503": ForeignKeyViolationErr,
	"23514": CheckConstraintViolationErr,
	"22001": DataTruncatedErr,
	"42804": InvalidTypeCastErr,
	"42601": SyntaxErr,
}

// IsSqlError reports whether err came from the database and, if so, what
// kind of failure it was. Typed driver errors are checked first; sqlite and
// wrapped errors fall back to message matching.
func IsSqlError(err error) (is bool, sqlErr SQLError) {
	if err == nil {
		return false, UnknownErr
	}
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		if kind, ok := mysqlCodes[mysqlErr.Number]; ok {
			return true, kind
		}
		return true, UnknownErr
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return true, sqlStates[string(pqErr.Code)]
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return true, sqlStates[strings.ToUpper(pgErr.Code)]
	}

	s := strings.ToLower(err.Error())
	switch {
	case strings.Contains(s, "no rows in result set"):
		return true, NoRowsErr
	case strings.Contains(s, "no such column"), strings.Contains(s, "undefined column"):
		return true, NoColumnErr
	case strings.Contains(s, "no such table"), strings.Contains(s, "undefined table"):
		return true, NoTableErr
	case strings.Contains(s, "unique constraint failed"), strings.Contains(s, "duplicate key value"):
		return true, DuplicateKeyErr
	case strings.Contains(s, "not null constraint failed"), strings.Contains(s, "not-null constraint"):
		return true, NotNullViolationErr
	case strings.Contains(s, "foreign key constraint failed"):
		return true, ForeignKeyViolationErr
	case strings.Contains(s, "check constraint failed"):
		return true, CheckConstraintViolationErr
	case strings.Contains(s, "datatype mismatch"):
		return true, InvalidTypeCastErr
	case strings.Contains(s, "syntax error"):
		return true, SyntaxErr
	}
	return false, UnknownErr
}
