package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/neexbeast/wayfarer/internal/geo"
	"github.com/neexbeast/wayfarer/internal/poi"
	"github.com/neexbeast/wayfarer/internal/translate"
)

// Querier abstracts the subset of pgxpool.Pool used by Repository.
// This allows injection of a mock in tests.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Repository is the Postgres-backed POI catalog and phrasebook source. It
// implements poi.Catalog.
type Repository struct {
	q Querier
}

// NewRepository constructs a Repository backed by the given pool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{q: pool}
}

// NewRepositoryWithQuerier constructs a Repository with a custom Querier (for tests).
func NewRepositoryWithQuerier(q Querier) *Repository {
	return &Repository{q: q}
}

const poiColumns = `id, city, name, category, indoor, hours, price, tags, lat, lon`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPOI(row rowScanner) (poi.PointOfInterest, error) {
	var p poi.PointOfInterest
	var city, category string
	var hours *string
	var lat, lon float64

	if err := row.Scan(&p.ID, &city, &p.Name, &category, &p.Indoor, &hours, &p.Price, &p.Tags, &lat, &lon); err != nil {
		return poi.PointOfInterest{}, err
	}

	p.City = poi.City(city)
	p.Category = poi.Category(category)
	if hours != nil {
		p.Hours = *hours
	}
	p.Location = geo.Coordinate{Lat: lat, Lon: lon}
	return p, nil
}

// List returns the city's POIs in catalog order. Rows that fail validation
// are an error: the table is seeded from validated records.
func (r *Repository) List(ctx context.Context, city poi.City) ([]poi.PointOfInterest, error) {
	q := `SELECT ` + poiColumns + ` FROM pois WHERE city = $1 ORDER BY position, id`

	rows, err := r.q.Query(ctx, q, string(city))
	if err != nil {
		return nil, fmt.Errorf("querying pois for city %s: %w", city, err)
	}
	defer rows.Close()

	var out []poi.PointOfInterest
	for rows.Next() {
		p, err := scanPOI(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning poi row for city %s: %w", city, err)
		}
		if err := p.Validate(); err != nil {
			return nil, fmt.Errorf("invalid poi row for city %s: %w", city, err)
		}
		out = append(out, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating poi rows for city %s: %w", city, err)
	}

	return out, nil
}

// Get retrieves one POI.
// Returns nil, nil when it is not found.
func (r *Repository) Get(ctx context.Context, city poi.City, id string) (*poi.PointOfInterest, error) {
	q := `SELECT ` + poiColumns + ` FROM pois WHERE city = $1 AND id = $2`

	p, err := scanPOI(r.q.QueryRow(ctx, q, string(city), id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("querying poi %s/%s: %w", city, id, err)
	}

	return &p, nil
}

// UpsertPOIs inserts or updates the given records, keeping their slice order
// as the catalog order. Invalid records are rejected before any write.
func (r *Repository) UpsertPOIs(ctx context.Context, records []poi.PointOfInterest) error {
	for _, p := range records {
		if err := p.Validate(); err != nil {
			return fmt.Errorf("upserting pois: %w", err)
		}
	}

	const q = `
		INSERT INTO pois (id, city, position, name, category, indoor, hours, price, tags, lat, lon, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''), $8, $9, $10, $11, NOW())
		ON CONFLICT (city, id) DO UPDATE
		SET position   = EXCLUDED.position,
		    name       = EXCLUDED.name,
		    category   = EXCLUDED.category,
		    indoor     = EXCLUDED.indoor,
		    hours      = EXCLUDED.hours,
		    price      = EXCLUDED.price,
		    tags       = EXCLUDED.tags,
		    lat        = EXCLUDED.lat,
		    lon        = EXCLUDED.lon,
		    updated_at = EXCLUDED.updated_at
	`

	for i, p := range records {
		tags := p.Tags
		if tags == nil {
			tags = []string{}
		}
		if _, err := r.q.Exec(ctx, q,
			p.ID, string(p.City), i, p.Name, string(p.Category), p.Indoor, p.Hours, p.Price, tags,
			p.Location.Lat, p.Location.Lon,
		); err != nil {
			return fmt.Errorf("upserting poi %s/%s: %w", p.City, p.ID, err)
		}
	}

	return nil
}

// CountPOIs returns the number of catalog rows.
func (r *Repository) CountPOIs(ctx context.Context) (int, error) {
	var n int
	if err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM pois`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting pois: %w", err)
	}
	return n, nil
}

// Phrases loads the whole phrases table into a phrasebook.
func (r *Repository) Phrases(ctx context.Context) (*translate.MapPhrasebook, error) {
	rows, err := r.q.Query(ctx, `SELECT lang, category, idx, text FROM phrases`)
	if err != nil {
		return nil, fmt.Errorf("querying phrases: %w", err)
	}
	defer rows.Close()

	pb := translate.NewMapPhrasebook()
	for rows.Next() {
		var lang, category, text string
		var idx int
		if err := rows.Scan(&lang, &category, &idx, &text); err != nil {
			return nil, fmt.Errorf("scanning phrase row: %w", err)
		}
		pb.Add(lang, category, idx, text)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating phrase rows: %w", err)
	}

	return pb, nil
}

// UpsertPhrases stores every phrase of every language in pb.
func (r *Repository) UpsertPhrases(ctx context.Context, pb *translate.MapPhrasebook) error {
	const q = `
		INSERT INTO phrases (lang, category, idx, text)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (lang, category, idx) DO UPDATE SET text = EXCLUDED.text
	`

	for _, lang := range pb.Languages() {
		for _, e := range pb.Entries(lang) {
			if _, err := r.q.Exec(ctx, q, lang, e.Category, e.Index, e.Text); err != nil {
				return fmt.Errorf("upserting phrase %s/%s/%d: %w", lang, e.Category, e.Index, err)
			}
		}
	}

	return nil
}

// Seed loads the bundled catalog and phrasebook when the catalog is empty.
// The count and every write share one transaction, so a failed seed leaves
// no rows behind and runs again on the next start. It reports whether
// anything was written.
func (r *Repository) Seed(ctx context.Context, records []poi.PointOfInterest, pb *translate.MapPhrasebook) (bool, error) {
	pool, ok := r.q.(MigrationPool)
	if !ok {
		return false, errors.New("seeding catalog: querier does not support transactions")
	}

	seeded := false
	err := runInTx(ctx, pool, func(tx pgx.Tx) error {
		in := &Repository{q: tx}

		n, err := in.CountPOIs(ctx)
		if err != nil {
			return err
		}
		if n > 0 {
			return nil
		}

		if err := in.UpsertPOIs(ctx, records); err != nil {
			return err
		}
		if pb != nil {
			if err := in.UpsertPhrases(ctx, pb); err != nil {
				return err
			}
		}
		seeded = true
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("seeding catalog: %w", err)
	}
	return seeded, nil
}
