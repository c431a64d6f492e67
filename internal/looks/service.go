package looks

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"nail-preview-backend/internal/models"
	"nail-preview-backend/internal/supabase"
)

// Placeholder attribution used when a save arrives without the field. A save
// is never rejected for missing attribution.
const (
	placeholderColorName = "Custom shade"
	placeholderColorHex  = "#CC0000"
	placeholderShapeName = "Natural"
)

// MetadataStore is the slice of the database client the looks package needs.
// *supabase.DatabaseClient satisfies it; tests inject fakes.
type MetadataStore interface {
	InsertLook(look *models.Look) (*models.Look, error)
	GetLook(lookID, userID uuid.UUID) (*models.Look, error)
	ListLooks(userID uuid.UUID) ([]models.Look, error)
	DeleteLook(lookID, userID uuid.UUID) error
}

// EventPublisher pushes look lifecycle events to interested clients.
// *supabase.Notifier satisfies it.
type EventPublisher interface {
	PublishUserEvent(userID uuid.UUID, event string, payload map[string]interface{}) error
}

// SaveInput is everything needed to persist one look.
type SaveInput struct {
	ColorName     string
	ColorHex      string
	ShapeName     string
	Brand         string
	ProductLine   string
	ShadeCode     string
	Collection    string
	SwatchURL     string
	Finish        string
	SourceCatalog string

	// Inline data URLs of the source photo and the transformed result.
	OriginalImage    string
	TransformedImage string
}

// Service owns the save/reconcile/delete lifecycle of looks. Saves are
// optimistic: the caller gets a pending cache entry back immediately and the
// uploads plus the metadata insert run in the background.
type Service struct {
	uploader *Uploader
	store    MetadataStore
	objects  ObjectStore
	cache    *Cache
	events   EventPublisher
	now      func() time.Time
	log      zerolog.Logger

	// background tracks in-flight finalize goroutines so tests and
	// shutdown can wait for them.
	background sync.WaitGroup
}

func NewService(uploader *Uploader, store MetadataStore, objects ObjectStore, events EventPublisher, logger zerolog.Logger) *Service {
	return &Service{
		uploader: uploader,
		store:    store,
		objects:  objects,
		cache:    NewCache(),
		events:   events,
		now:      time.Now,
		log:      logger,
	}
}

// Cache exposes the local list for snapshots and subscriptions.
func (s *Service) Cache() *Cache {
	return s.cache
}

// Save inserts a pending entry at the front of the local cache and returns it
// immediately; the uploads and the metadata insert happen in the background.
// There is no cancellation: once started, a save runs to a synced entry or an
// error-status entry, never silently disappears.
func (s *Service) Save(userID uuid.UUID, in SaveInput) models.SavedLook {
	in = applyDefaults(in)
	now := s.now()

	entry := models.SavedLook{
		ID:               fmt.Sprintf("pending-%d", now.UnixNano()),
		Status:           models.LookStatusPending,
		ColorName:        in.ColorName,
		ColorHex:         in.ColorHex,
		ShapeName:        in.ShapeName,
		Brand:            in.Brand,
		ProductLine:      in.ProductLine,
		ShadeCode:        in.ShadeCode,
		Collection:       in.Collection,
		SwatchURL:        in.SwatchURL,
		Finish:           in.Finish,
		SourceCatalog:    in.SourceCatalog,
		OriginalImage:    in.OriginalImage,
		TransformedImage: in.TransformedImage,
		CreatedAt:        now,
	}

	s.cache.Update(func(current []models.SavedLook) []models.SavedLook {
		next := append([]models.SavedLook{entry}, current...)
		SortLooks(next)
		return next
	})

	s.background.Add(1)
	go s.finalize(userID, entry.ID, in)

	return entry
}

// WaitForSync blocks until all background finalize work has finished.
func (s *Service) WaitForSync() {
	s.background.Wait()
}

func (s *Service) finalize(userID uuid.UUID, tempID string, in SaveInput) {
	defer s.background.Done()

	inserted, err := s.persist(userID, in)
	if err != nil {
		s.failPending(userID, tempID, err)
		return
	}

	synced := SavedLookFromRow(*inserted)

	s.cache.Update(func(current []models.SavedLook) []models.SavedLook {
		next := make([]models.SavedLook, 0, len(current))
		for _, look := range current {
			if look.ID == tempID || look.ID == synced.ID {
				continue
			}
			next = append(next, look)
		}
		next = append(next, synced)
		SortLooks(next)
		return next
	})

	if err := s.events.PublishUserEvent(userID, "look_saved", supabase.LookSavedPayload(synced.ID)); err != nil {
		s.log.Warn().Err(err).Msg("publish look_saved event")
	}
}

// persist performs the two uploads and the metadata insert.
func (s *Service) persist(userID uuid.UUID, in SaveInput) (*models.Look, error) {
	in = applyDefaults(in)

	original, err := s.uploader.Upload(in.OriginalImage, userID.String(), KindOriginal)
	if err != nil {
		return nil, fmt.Errorf("upload original: %w", err)
	}

	transformed, err := s.uploader.Upload(in.TransformedImage, userID.String(), KindTransformed)
	if err != nil {
		return nil, fmt.Errorf("upload transformed: %w", err)
	}

	row := &models.Look{
		UserID:              userID,
		ColorName:           in.ColorName,
		ColorHex:            in.ColorHex,
		ShapeName:           in.ShapeName,
		Brand:               nullable(in.Brand),
		ProductLine:         nullable(in.ProductLine),
		ShadeCode:           nullable(in.ShadeCode),
		Collection:          nullable(in.Collection),
		SwatchURL:           nullable(in.SwatchURL),
		Finish:              nullable(in.Finish),
		SourceCatalog:       nullable(in.SourceCatalog),
		OriginalImageURL:    Reference(original.Bucket, original.Path),
		TransformedImageURL: Reference(transformed.Bucket, transformed.Path),
	}

	inserted, err := s.store.InsertLook(row)
	if err != nil {
		return nil, fmt.Errorf("insert look: %w", err)
	}

	return inserted, nil
}

// SaveNow persists a look synchronously and returns it with resolved URLs.
// The REST surface uses this; interactive clients use Save.
func (s *Service) SaveNow(userID uuid.UUID, in SaveInput) (models.LookResponse, error) {
	inserted, err := s.persist(userID, in)
	if err != nil {
		return models.LookResponse{}, err
	}

	synced := SavedLookFromRow(*inserted)
	s.cache.Update(func(current []models.SavedLook) []models.SavedLook {
		next := make([]models.SavedLook, 0, len(current)+1)
		for _, look := range current {
			if look.ID == synced.ID {
				continue
			}
			next = append(next, look)
		}
		next = append(next, synced)
		SortLooks(next)
		return next
	})

	if err := s.events.PublishUserEvent(userID, "look_saved", supabase.LookSavedPayload(synced.ID)); err != nil {
		s.log.Warn().Err(err).Msg("publish look_saved event")
	}

	return s.ResolveRow(*inserted)
}

// failPending mutates the pending entry in place to error status. The entry
// stays visible; a failed save is never silently dropped.
func (s *Service) failPending(userID uuid.UUID, tempID string, cause error) {
	s.log.Error().Err(cause).Str("temp_id", tempID).Msg("look save failed")

	s.cache.Update(func(current []models.SavedLook) []models.SavedLook {
		for i := range current {
			if current[i].ID == tempID {
				current[i].Status = models.LookStatusError
				current[i].ErrorMessage = cause.Error()
			}
		}
		SortLooks(current)
		return current
	})

	if err := s.events.PublishUserEvent(userID, "look_save_failed", supabase.LookSaveFailedPayload(tempID, cause.Error())); err != nil {
		s.log.Warn().Err(err).Msg("publish look_save_failed event")
	}
}

// Refresh pulls the remote list and reconciles the local cache against it.
func (s *Service) Refresh(userID uuid.UUID) ([]models.SavedLook, error) {
	rows, err := s.store.ListLooks(userID)
	if err != nil {
		return nil, fmt.Errorf("list looks: %w", err)
	}

	remote := make([]models.SavedLook, 0, len(rows))
	for _, row := range rows {
		remote = append(remote, SavedLookFromRow(row))
	}

	return s.cache.Update(func(current []models.SavedLook) []models.SavedLook {
		return Merge(remote, current)
	}), nil
}

// Delete removes a look. Both storage objects are removed best-effort first;
// the metadata row is authoritative and its deletion proceeds even when
// storage cleanup fails.
func (s *Service) Delete(lookID, userID uuid.UUID) error {
	row, err := s.store.GetLook(lookID, userID)
	if err != nil {
		return fmt.Errorf("fetch look: %w", err)
	}

	for _, ref := range []string{row.OriginalImageURL, row.TransformedImageURL} {
		bucket, path, ok := ParseReference(ref)
		if !ok {
			continue
		}
		if err := s.objects.Remove(bucket, []string{path}); err != nil {
			s.log.Warn().Err(err).Str("bucket", bucket).Str("path", path).
				Msg("storage cleanup failed, continuing with row delete")
		}
	}

	if err := s.store.DeleteLook(lookID, userID); err != nil {
		return fmt.Errorf("delete look: %w", err)
	}

	s.cache.Update(func(current []models.SavedLook) []models.SavedLook {
		next := current[:0]
		for _, look := range current {
			if look.ID != lookID.String() {
				next = append(next, look)
			}
		}
		return next
	})

	if err := s.events.PublishUserEvent(userID, "look_deleted", supabase.LookDeletedPayload(lookID.String())); err != nil {
		s.log.Warn().Err(err).Msg("publish look_deleted event")
	}

	return nil
}

// Resolve turns a stored image reference into a fetchable URL. Inline data
// URLs pass through untouched; storage tokens and legacy Supabase URLs are
// re-resolved so signed URLs are always fresh.
func (s *Service) Resolve(ref string) (string, error) {
	bucket, path, ok := ParseReference(ref)
	if !ok {
		// Data URLs and foreign URLs are already displayable.
		return ref, nil
	}
	return s.objects.ResolveURL(bucket, path)
}

// ResolveRow maps a database row to its API shape with both image references
// resolved to currently valid URLs.
func (s *Service) ResolveRow(row models.Look) (models.LookResponse, error) {
	originalURL, err := s.Resolve(row.OriginalImageURL)
	if err != nil {
		return models.LookResponse{}, fmt.Errorf("resolve original image: %w", err)
	}
	transformedURL, err := s.Resolve(row.TransformedImageURL)
	if err != nil {
		return models.LookResponse{}, fmt.Errorf("resolve transformed image: %w", err)
	}

	return models.LookResponse{
		ID:                  row.ID.String(),
		ColorName:           row.ColorName,
		ColorHex:            row.ColorHex,
		ShapeName:           row.ShapeName,
		Brand:               row.Brand.String,
		ProductLine:         row.ProductLine.String,
		ShadeCode:           row.ShadeCode.String,
		Collection:          row.Collection.String,
		SwatchURL:           row.SwatchURL.String,
		Finish:              row.Finish.String,
		SourceCatalog:       row.SourceCatalog.String,
		OriginalImageURL:    originalURL,
		TransformedImageURL: transformedURL,
		CreatedAt:           row.CreatedAt,
	}, nil
}

// ListResolved returns the user's remote looks with resolved URLs, for the
// REST surface.
func (s *Service) ListResolved(userID uuid.UUID) ([]models.LookResponse, error) {
	rows, err := s.store.ListLooks(userID)
	if err != nil {
		return nil, fmt.Errorf("list looks: %w", err)
	}

	resolved := make([]models.LookResponse, 0, len(rows))
	for _, row := range rows {
		resp, err := s.ResolveRow(row)
		if err != nil {
			s.log.Warn().Err(err).Str("look_id", row.ID.String()).Msg("skipping unresolvable look")
			continue
		}
		resolved = append(resolved, resp)
	}

	return resolved, nil
}

// SavedLookFromRow maps a database row to a synced cache entry. Image fields
// keep their storage tokens; display paths resolve them on demand.
func SavedLookFromRow(row models.Look) models.SavedLook {
	return models.SavedLook{
		ID:               row.ID.String(),
		Status:           models.LookStatusSynced,
		ColorName:        row.ColorName,
		ColorHex:         row.ColorHex,
		ShapeName:        row.ShapeName,
		Brand:            row.Brand.String,
		ProductLine:      row.ProductLine.String,
		ShadeCode:        row.ShadeCode.String,
		Collection:       row.Collection.String,
		SwatchURL:        row.SwatchURL.String,
		Finish:           row.Finish.String,
		SourceCatalog:    row.SourceCatalog.String,
		OriginalImage:    row.OriginalImageURL,
		TransformedImage: row.TransformedImageURL,
		CreatedAt:        row.CreatedAt,
	}
}

func applyDefaults(in SaveInput) SaveInput {
	if in.ColorName == "" {
		in.ColorName = placeholderColorName
	}
	if in.ColorHex == "" {
		in.ColorHex = placeholderColorHex
	}
	if in.ShapeName == "" {
		in.ShapeName = placeholderShapeName
	}
	return in
}

func nullable(value string) sql.NullString {
	return sql.NullString{String: value, Valid: value != ""}
}
