package database

import (
	"time"

	"github.com/BodiAli/blog-api/internal/observability"

	"gorm.io/gorm"
)

const queryStartKey = "metrics:query_start"

// RegisterMetrics installs GORM callbacks that record statement latency per operation and table.
func RegisterMetrics(db *gorm.DB) error {
	cb := db.Callback()
	steps := []struct {
		op     string
		before func(string, func(*gorm.DB)) error
		after  func(string, func(*gorm.DB)) error
	}{
		{"create", cb.Create().Before("gorm:create").Register, cb.Create().After("gorm:create").Register},
		{"query", cb.Query().Before("gorm:query").Register, cb.Query().After("gorm:query").Register},
		{"update", cb.Update().Before("gorm:update").Register, cb.Update().After("gorm:update").Register},
		{"delete", cb.Delete().Before("gorm:delete").Register, cb.Delete().After("gorm:delete").Register},
		{"row", cb.Row().Before("gorm:row").Register, cb.Row().After("gorm:row").Register},
		{"raw", cb.Raw().Before("gorm:raw").Register, cb.Raw().After("gorm:raw").Register},
	}
	for _, s := range steps {
		if err := s.before("metrics:before_"+s.op, markQueryStart); err != nil {
			return err
		}
		if err := s.after("metrics:after_"+s.op, observeQuery(s.op)); err != nil {
			return err
		}
	}
	return nil
}

func markQueryStart(db *gorm.DB) {
	db.InstanceSet(queryStartKey, time.Now())
}

func observeQuery(op string) func(*gorm.DB) {
	return func(db *gorm.DB) {
		v, ok := db.InstanceGet(queryStartKey)
		if !ok {
			return
		}
		start, ok := v.(time.Time)
		if !ok {
			return
		}
		table := db.Statement.Table
		if table == "" {
			table = "unknown"
		}
		observability.ObserveQuery(op, table, start)
	}
}
