package supabase

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	_ "github.com/lib/pq"

	"nail-preview-backend/internal/models"
)

// ErrLookNotFound is returned when a look id does not exist for the user.
var ErrLookNotFound = errors.New("look not found")

type DatabaseClient struct {
	db *sql.DB
}

func NewDatabaseClient(connectionString string) (*DatabaseClient, error) {
	db, err := sql.Open("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DatabaseClient{db: db}, nil
}

const lookColumns = `id, user_id, color_name, color_hex, shape_name, brand, product_line,
		shade_code, collection, swatch_url, finish, source_catalog,
		original_image_url, transformed_image_url, created_at`

func (d *DatabaseClient) InsertLook(look *models.Look) (*models.Look, error) {
	if look.ID == uuid.Nil {
		look.ID = uuid.New()
	}

	var inserted models.Look
	err := d.db.QueryRow(`
		INSERT INTO looks (id, user_id, color_name, color_hex, shape_name, brand, product_line,
			shade_code, collection, swatch_url, finish, source_catalog,
			original_image_url, transformed_image_url)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING `+lookColumns+`
	`, look.ID, look.UserID, look.ColorName, look.ColorHex, look.ShapeName,
		look.Brand, look.ProductLine, look.ShadeCode, look.Collection,
		look.SwatchURL, look.Finish, look.SourceCatalog,
		look.OriginalImageURL, look.TransformedImageURL,
	).Scan(scanTargets(&inserted)...)
	if err != nil {
		return nil, fmt.Errorf("failed to insert look: %w", err)
	}

	return &inserted, nil
}

func (d *DatabaseClient) GetLook(lookID, userID uuid.UUID) (*models.Look, error) {
	var look models.Look
	err := d.db.QueryRow(`
		SELECT `+lookColumns+`
		FROM looks
		WHERE id = $1 AND user_id = $2
	`, lookID, userID).Scan(scanTargets(&look)...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrLookNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get look: %w", err)
	}

	return &look, nil
}

func (d *DatabaseClient) ListLooks(userID uuid.UUID) ([]models.Look, error) {
	rows, err := d.db.Query(`
		SELECT `+lookColumns+`
		FROM looks
		WHERE user_id = $1
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list looks: %w", err)
	}
	defer rows.Close()

	var looks []models.Look
	for rows.Next() {
		var look models.Look
		if err := rows.Scan(scanTargets(&look)...); err != nil {
			return nil, fmt.Errorf("failed to scan look: %w", err)
		}
		looks = append(looks, look)
	}

	return looks, rows.Err()
}

func (d *DatabaseClient) DeleteLook(lookID, userID uuid.UUID) error {
	result, err := d.db.Exec(`
		DELETE FROM looks
		WHERE id = $1 AND user_id = $2
	`, lookID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete look: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return ErrLookNotFound
	}
	return nil
}

func (d *DatabaseClient) Close() error {
	return d.db.Close()
}

func scanTargets(look *models.Look) []interface{} {
	return []interface{}{
		&look.ID, &look.UserID, &look.ColorName, &look.ColorHex, &look.ShapeName,
		&look.Brand, &look.ProductLine, &look.ShadeCode, &look.Collection,
		&look.SwatchURL, &look.Finish, &look.SourceCatalog,
		&look.OriginalImageURL, &look.TransformedImageURL, &look.CreatedAt,
	}
}
