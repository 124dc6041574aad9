package db

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

// Messages the supported drivers emit for unique-constraint violations.
var duplicateKeyMessages = []string{
	"duplicate key value violates unique constraint", // postgres 23505
	"Error 1062",               // mysql
	"UNIQUE constraint failed", // sqlite
}

// IsDuplicateKeyErr reports whether err is a unique-constraint violation on
// any supported dialect.
func IsDuplicateKeyErr(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	for _, candidate := range duplicateKeyMessages {
		if strings.Contains(msg, candidate) {
			return true
		}
	}
	return false
}
