package oceanq

import (
	"regexp"
	"strings"

	"github.com/jackc/pgx/v5"
)

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// maxIdentifierLength is PostgreSQL's NAMEDATALEN - 1.
const maxIdentifierLength = 63

// ParseTableName validates a table name of the form [schema.]table and
// returns it as a pgx.Identifier ready for quoting.
// Only unquoted SQL identifiers are accepted.
func ParseTableName(name string) (pgx.Identifier, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, NewValidationError("table name", "must not be empty")
	}

	parts := strings.Split(name, ".")
	if len(parts) > 2 {
		return nil, NewValidationError("table name", "%q has more than one schema qualifier", name)
	}
	for _, p := range parts {
		if len(p) > maxIdentifierLength {
			return nil, NewValidationError("table name", "%q exceeds %d characters", p, maxIdentifierLength)
		}
		if !identifierPattern.MatchString(p) {
			return nil, NewValidationError("table name", "%q is not a valid identifier", name)
		}
	}
	return pgx.Identifier(parts), nil
}

// IsValidTableName reports whether ParseTableName accepts name.
func IsValidTableName(name string) bool {
	_, err := ParseTableName(name)
	return err == nil
}
