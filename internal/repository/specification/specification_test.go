package specification

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type row struct {
	Id        string
	SessionId string
	Source    string
}

func dryRunDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(postgres.New(postgres.Config{DSN: "host=localhost dbname=dry"}), &gorm.Config{
		DryRun:                 true,
		DisableAutomaticPing:   true,
		SkipDefaultTransaction: true,
	})
	if err != nil {
		t.Fatalf("open dry run db: %v", err)
	}
	return db
}

func TestSpecificationsBuildSQL(t *testing.T) {
	tests := []struct {
		name  string
		specs []Specification
		want  []string
	}{
		{
			name:  "session filter",
			specs: []Specification{BySessionID{SessionID: "s-1"}},
			want:  []string{"session_id = $1"},
		},
		{
			name:  "source and ordering",
			specs: []Specification{BySource{Source: "kb.txt"}, OrderBy{Field: "chunk_index"}},
			want:  []string{"source = $1", "ORDER BY chunk_index ASC"},
		},
		{
			name:  "generic filter with pagination",
			specs: []Specification{Filter("kind", "user_stories"), Pagination{Limit: 5}},
			want:  []string{"kind = $1", "LIMIT"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := dryRunDB(t).Model(&row{})
			for _, s := range tt.specs {
				q = s.Apply(q)
			}
			var out []row
			stmt := q.Find(&out).Statement
			sql := stmt.SQL.String()
			for _, fragment := range tt.want {
				assert.Contains(t, sql, fragment)
			}
		})
	}
}

func TestSpecificationsRejectUnsafeColumns(t *testing.T) {
	tests := []struct {
		name string
		spec Specification
	}{
		{name: "order by injection", spec: OrderBy{Field: "created_at; DROP TABLE track_records"}},
		{name: "filter with quote", spec: Filter("kind' OR '1'='1", "x")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := tt.spec.Apply(dryRunDB(t).Model(&row{}))
			assert.Error(t, q.Error)
		})
	}
}
