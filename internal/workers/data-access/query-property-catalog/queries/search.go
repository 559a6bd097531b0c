// internal/workers/data-access/query-property-catalog/queries/search.go
package queries

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"realestate-workers/internal/models"

	"github.com/lib/pq"
)

const selectProperties = `SELECT id, title, description, property_type, listing_status, price, currency, ` +
	`bedrooms, bathrooms, area_sqm, address, city, state, features, agent_id, created_at FROM properties`

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// builder numbers placeholders in the order arguments are added.
type builder struct {
	where []string
	args  []interface{}
}

func (b *builder) arg(v interface{}) string {
	b.args = append(b.args, v)
	return fmt.Sprintf("$%d", len(b.args))
}

// BuildSearch renders filters as a parameterized query. Predicates always
// appear in the same order so identical filters produce identical SQL.
func BuildSearch(f models.SearchFilters, policy models.FeatureMatch, limit int) (string, []interface{}) {
	b := &builder{}

	switch {
	case f.MinPrice != nil && f.MaxPrice != nil:
		b.where = append(b.where, fmt.Sprintf("price BETWEEN %s AND %s", b.arg(*f.MinPrice), b.arg(*f.MaxPrice)))
	case f.MinPrice != nil:
		b.where = append(b.where, "price >= "+b.arg(*f.MinPrice))
	case f.MaxPrice != nil:
		b.where = append(b.where, "price <= "+b.arg(*f.MaxPrice))
	}

	if f.Bedrooms != nil {
		b.where = append(b.where, "bedrooms >= "+b.arg(*f.Bedrooms))
	}
	if f.Bathrooms != nil {
		b.where = append(b.where, "bathrooms >= "+b.arg(*f.Bathrooms))
	}
	if f.MinArea != nil {
		b.where = append(b.where, "area_sqm >= "+b.arg(*f.MinArea))
	}
	if f.PropertyType != "" {
		b.where = append(b.where, "property_type = "+b.arg(string(f.PropertyType)))
	}
	if f.ListingStatus != "" {
		b.where = append(b.where, "listing_status = "+b.arg(string(f.ListingStatus)))
	}

	if len(f.LocationTokens) > 0 {
		ors := make([]string, 0, len(f.LocationTokens))
		for _, token := range f.LocationTokens {
			p := b.arg("%" + likeEscaper.Replace(token) + "%")
			ors = append(ors, fmt.Sprintf("(city ILIKE %s OR state ILIKE %s OR address ILIKE %s)", p, p, p))
		}
		b.where = append(b.where, "("+strings.Join(ors, " OR ")+")")
	}

	if len(f.FeatureTags) > 0 {
		op := "&&"
		if policy == models.FeatureMatchAll {
			op = "@>"
		}
		b.where = append(b.where, fmt.Sprintf("features %s %s", op, b.arg(pq.Array(f.FeatureTags))))
	}

	var sb strings.Builder
	sb.WriteString(selectProperties)
	if len(b.where) > 0 {
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(b.where, " AND "))
	}
	sb.WriteString(" ORDER BY created_at DESC LIMIT ")
	sb.WriteString(b.arg(limit))

	return sb.String(), b.args
}

// Search runs the query built from filters and scans every row.
func Search(ctx context.Context, db *sql.DB, f models.SearchFilters, policy models.FeatureMatch, limit int) ([]models.Property, error) {
	query, args := BuildSearch(f, policy, limit)

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	properties := []models.Property{}
	for rows.Next() {
		var (
			p        models.Property
			pType    string
			pStatus  string
			features pq.StringArray
			agentID  sql.NullString
		)
		if err := rows.Scan(
			&p.ID, &p.Title, &p.Description, &pType, &pStatus,
			&p.Price, &p.Currency, &p.Bedrooms, &p.Bathrooms, &p.AreaSqm,
			&p.Address, &p.City, &p.State, &features, &agentID, &p.CreatedAt,
		); err != nil {
			return nil, err
		}
		p.PropertyType = models.PropertyType(pType)
		p.ListingStatus = models.ListingStatus(pStatus)
		p.Features = []string(features)
		p.AgentID = agentID.String
		properties = append(properties, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return properties, nil
}
