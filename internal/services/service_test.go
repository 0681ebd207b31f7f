package services

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/fotoatelier/backend/internal/config"
	"github.com/fotoatelier/backend/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
		TranslateError: true,
	})
	require.NoError(t, err)

	// A single connection keeps every query on the same in-memory database
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, models.Migrate(db))
	return db
}

func testConfig() *config.Config {
	return config.New()
}

// fakeStore is an in-memory ObjectStore for tests.
type fakeStore struct {
	mu         sync.Mutex
	objects    map[string][]byte
	deleted    []string
	failDelete bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{objects: map[string][]byte{}}
}

func (f *fakeStore) Upload(ctx context.Context, key string, body io.Reader, contentType string) (string, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[key] = data
	return "https://store.test/" + key, nil
}

func (f *fakeStore) Delete(ctx context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failDelete {
		return fmt.Errorf("storage unavailable")
	}
	delete(f.objects, key)
	f.deleted = append(f.deleted, key)
	return nil
}

func (f *fakeStore) has(key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.objects[key]
	return ok
}

func (f *fakeStore) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.objects)
}

// testPNG returns a small but fully decodable PNG.
func testPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for x := 0; x < 4; x++ {
		for y := 0; y < 4; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 60), G: uint8(y * 60), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func createTestProject(t *testing.T, db *gorm.DB) *models.Project {
	t.Helper()
	project := &models.Project{
		Name:       "Hochzeit Tanaka",
		ClientName: "Tanaka",
		Status:     models.ProjectStatusActive,
		CreatedBy:  uuid.New(),
	}
	require.NoError(t, db.Create(project).Error)
	return project
}

func createTestImage(t *testing.T, db *gorm.DB, projectID uuid.UUID, title string, createdAt time.Time) *models.Image {
	t.Helper()
	img := &models.Image{
		ProjectID:   &projectID,
		URL:         "https://store.test/images/" + uuid.New().String() + ".jpg",
		StoragePath: "images/" + uuid.New().String() + ".jpg",
		Title:       title,
		UserID:      uuid.New(),
		CreatedAt:   createdAt,
	}
	require.NoError(t, db.Create(img).Error)
	return img
}

func createTestInvitation(t *testing.T, db *gorm.DB, projectID uuid.UUID, imageIDs []string, expiresAt time.Time) *models.Invitation {
	t.Helper()
	inv := &models.Invitation{
		Token:       uuid.New().String()[:21],
		ProjectID:   &projectID,
		ClientName:  "Tanaka",
		CreatedBy:   uuid.New(),
		ImageIDs:    imageIDs,
		ExpiresAt:   expiresAt,
		IsActive:    true,
		AccessCount: 0,
	}
	require.NoError(t, db.Create(inv).Error)
	return inv
}
