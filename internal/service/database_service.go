package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/it-all/slim-postgres/internal/constants"
	"github.com/it-all/slim-postgres/internal/database"
	"github.com/it-all/slim-postgres/internal/filter"
	"github.com/it-all/slim-postgres/internal/repository"
	"github.com/it-all/slim-postgres/internal/utils"
)

// TableListing is a read-only view of a registered table
type TableListing struct {
	Table   string            `json:"table"`
	Title   string            `json:"title"`
	Columns []TableColumn     `json:"columns"`
	Rows    []database.Record `json:"rows"`
}

// TableColumn describes a listed column
type TableColumn struct {
	Name       string `json:"name"`
	Type       string `json:"type"`
	Nullable   bool   `json:"nullable"`
	PrimaryKey bool   `json:"primary_key"`
	Unique     bool   `json:"unique"`
}

// DatabaseService lists the rows of any registered table
type DatabaseService struct {
	registry *database.Registry
	// Tables that are never listed generically
	hiddenTables map[string]bool
}

// NewDatabaseService creates a new DatabaseService
func NewDatabaseService(registry *database.Registry) *DatabaseService {
	return &DatabaseService{
		registry: registry,
		hiddenTables: map[string]bool{
			constants.TableAdministrators: true,
		},
	}
}

// ValidateTableAccess checks if the table is allowed for generic listing
func (s *DatabaseService) ValidateTableAccess(table string) (*database.TableMapper, error) {
	if s.hiddenTables[table] {
		return nil, utils.NewForbiddenError(fmt.Sprintf("Table '%s' is not accessible through generic operations", table))
	}
	mapper, err := s.registry.Mapper(table)
	if err != nil {
		return nil, utils.NewNotFoundError("Table", table)
	}
	return mapper, nil
}

// Tables returns the names of the listable tables
func (s *DatabaseService) Tables() []string {
	var tables []string
	for _, table := range s.registry.Tables() {
		if !s.hiddenTables[table] {
			tables = append(tables, table)
		}
	}
	return tables
}

// Mapper returns the entity metadata of a listable table
func (s *DatabaseService) Mapper(table string) (repository.EntityMapper, error) {
	mapper, err := s.ValidateTableAccess(table)
	if err != nil {
		return nil, err
	}
	return mapper, nil
}

// GetTableData returns the columns and the rows of table matching where
func (s *DatabaseService) GetTableData(ctx context.Context, table string, where filter.Descriptor) (*TableListing, error) {
	mapper, err := s.ValidateTableAccess(table)
	if err != nil {
		return nil, err
	}

	rows, err := mapper.Select(ctx, "*", where)
	if err != nil {
		return nil, fmt.Errorf("failed to list table %s: %w", table, err)
	}

	listing := &TableListing{
		Table: table,
		Title: mapper.FormalTableName(true),
		Rows:  rows,
	}
	for _, column := range mapper.Columns() {
		listing.Columns = append(listing.Columns, TableColumn{
			Name:       column.Name(),
			Type:       column.Type(),
			Nullable:   column.IsNullable(),
			PrimaryKey: column.IsPrimaryKey(),
			Unique:     column.IsUnique(),
		})
	}

	log.Debug().Str("table", table).Int("rows", len(rows)).Msg("Table listed")
	return listing, nil
}
