package repository

import "errors"

// ErrNotFound is returned when a query for a single entity (e.g. GetThread)
// finds no rows. Services translate it into app_errors.ErrNotFound so that the
// business layer never sees sql.ErrNoRows.
var ErrNotFound = errors.New("repository: not found")
