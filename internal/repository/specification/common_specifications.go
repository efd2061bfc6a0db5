package specification

import (
	"fmt"
	"regexp"

	"gorm.io/gorm"
)

// column names are interpolated into SQL, so only plain identifiers pass
var identifier = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

func checkColumn(db *gorm.DB, field string) bool {
	if identifier.MatchString(field) {
		return true
	}
	_ = db.AddError(fmt.Errorf("specification: invalid column %q", field))
	return false
}

// OrderBy applies ordering
type OrderBy struct {
	Field string
	Desc  bool
}

func (s OrderBy) Apply(db *gorm.DB) *gorm.DB {
	if !checkColumn(db, s.Field) {
		return db
	}
	direction := "ASC"
	if s.Desc {
		direction = "DESC"
	}
	return db.Order(fmt.Sprintf("%s %s", s.Field, direction))
}

// Pagination
type Pagination struct {
	Limit  int
	Offset int
}

func (s Pagination) Apply(db *gorm.DB) *gorm.DB {
	return db.Limit(s.Limit).Offset(s.Offset)
}

// FilterBy is an equality filter on one column.
type FilterBy struct {
	Field string
	Value interface{}
}

func (s FilterBy) Apply(db *gorm.DB) *gorm.DB {
	if !checkColumn(db, s.Field) {
		return db
	}
	return db.Where(fmt.Sprintf("%s = ?", s.Field), s.Value)
}

func Filter(field string, value interface{}) Specification {
	return FilterBy{Field: field, Value: value}
}
