// Package repository defines error types that are reused across multiple
// repositories.  These sentinel values allow higher layers such as
// handlers to distinguish between different failure scenarios without
// inspecting driver errors themselves.
package repository

import (
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
)

// ErrUserNotFound is returned when no user matches the lookup.
var ErrUserNotFound = errors.New("user not found")

// ErrUsernameTaken is returned when an insert hits the unique username index.
var ErrUsernameTaken = errors.New("username already exists")

// ErrProductNotFound is returned when a product id does not exist.
var ErrProductNotFound = errors.New("product not found")

// isDuplicateKey reports whether err is MySQL error 1062 (ER_DUP_ENTRY).
func isDuplicateKey(err error) bool {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number == 1062
	}
	return err != nil && strings.Contains(err.Error(), "Error 1062")
}
