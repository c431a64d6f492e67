package models

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// Look is a saved-look metadata row. Image columns hold storage reference
// tokens (storage://bucket/path), never raw URLs, so records survive
// signed-URL expiry.
type Look struct {
	ID                  uuid.UUID
	UserID              uuid.UUID
	ColorName           string
	ColorHex            string
	ShapeName           string
	Brand               sql.NullString
	ProductLine         sql.NullString
	ShadeCode           sql.NullString
	Collection          sql.NullString
	SwatchURL           sql.NullString
	Finish              sql.NullString
	SourceCatalog       sql.NullString
	OriginalImageURL    string
	TransformedImageURL string
	CreatedAt           time.Time
}

type LookStatus string

const (
	LookStatusPending LookStatus = "pending"
	LookStatusSynced  LookStatus = "synced"
	LookStatusError   LookStatus = "error"
)

// SavedLook is a cache entry for one logical save. Before sync the image
// fields hold inline data URLs and ID a pending-<timestamp> placeholder;
// after sync they hold storage reference tokens and the server-assigned id.
type SavedLook struct {
	ID           string     `json:"id"`
	Status       LookStatus `json:"status"`
	ErrorMessage string     `json:"error_message,omitempty"`

	ColorName     string `json:"color_name"`
	ColorHex      string `json:"color_hex"`
	ShapeName     string `json:"shape_name"`
	Brand         string `json:"brand,omitempty"`
	ProductLine   string `json:"product_line,omitempty"`
	ShadeCode     string `json:"shade_code,omitempty"`
	Collection    string `json:"collection,omitempty"`
	SwatchURL     string `json:"swatch_url,omitempty"`
	Finish        string `json:"finish,omitempty"`
	SourceCatalog string `json:"source_catalog,omitempty"`

	OriginalImage    string `json:"original_image_url"`
	TransformedImage string `json:"transformed_image_url"`

	// Local-only fields, preserved across merges when the remote entry
	// lacks them.
	LocalOriginalPath    string `json:"local_original_path,omitempty"`
	LocalTransformedPath string `json:"local_transformed_path,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// Pending reports whether the entry still needs attention from the
// background sync (unsynced or failed).
func (l SavedLook) Pending() bool {
	return l.Status == LookStatusPending || l.Status == LookStatusError
}

// LookResponse is the API shape of a saved look, with storage references
// resolved to currently valid URLs.
type LookResponse struct {
	ID                  string    `json:"id"`
	ColorName           string    `json:"color_name"`
	ColorHex            string    `json:"color_hex"`
	ShapeName           string    `json:"shape_name"`
	Brand               string    `json:"brand,omitempty"`
	ProductLine         string    `json:"product_line,omitempty"`
	ShadeCode           string    `json:"shade_code,omitempty"`
	Collection          string    `json:"collection,omitempty"`
	SwatchURL           string    `json:"swatch_url,omitempty"`
	Finish              string    `json:"finish,omitempty"`
	SourceCatalog       string    `json:"source_catalog,omitempty"`
	OriginalImageURL    string    `json:"original_image_url"`
	TransformedImageURL string    `json:"transformed_image_url"`
	CreatedAt           time.Time `json:"created_at"`
}

type LooksListResponse struct {
	Looks []LookResponse `json:"looks"`
}
