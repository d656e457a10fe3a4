// Package sqlxrepos implements the domain repositories over PostgreSQL
// using sqlx for scanning and squirrel for query building.
package sqlxrepos

import (
	sq "github.com/Masterminds/squirrel"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
