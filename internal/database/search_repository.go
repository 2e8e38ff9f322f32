package database

import (
	"context"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func (g *GormRepository) searchQuery(ctx context.Context, target SearchTarget, ownerId uint, term string) *gorm.DB {
	pattern := containsPattern(term)

	matches := make([]clause.Expression, 0, len(target.Fields))
	for _, f := range target.Fields {
		matches = append(matches, clause.Expr{
			SQL:  "? ILIKE ?",
			Vars: []any{clause.Column{Table: target.Table, Name: f}, pattern},
		})
	}

	q := g.DB.
		WithContext(ctx).
		Table(target.Table).
		Where(clause.Or(matches...))

	if len(target.OwnerColumn) > 0 {
		q = q.Where(clause.Eq{Column: clause.Column{Table: target.Table, Name: target.OwnerColumn}, Value: ownerId})
	}

	return q
}

func (g *GormRepository) FindSearchMatches(ctx context.Context, target SearchTarget, ownerId uint, term string, limit int, rows *[]map[string]any) error {
	return g.searchQuery(ctx, target, ownerId, term).
		Select(target.Columns()).
		Limit(limit).
		Find(rows).
		Error
}

func (g *GormRepository) CountSearchMatches(ctx context.Context, target SearchTarget, ownerId uint, term string, count *int64) error {
	return g.searchQuery(ctx, target, ownerId, term).
		Count(count).
		Error
}
