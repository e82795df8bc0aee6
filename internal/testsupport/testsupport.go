package testsupport

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/karloscodes/cartridge"
	"github.com/karloscodes/cartridge/cache"
	ctestsupport "github.com/karloscodes/cartridge/testsupport"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"lovdash/internal"
	"lovdash/internal/auth"
	"lovdash/internal/config"
	"lovdash/internal/events"
	"lovdash/internal/links"
	"lovdash/internal/users"
)

// testDBCache caches test databases by test name to allow multiple calls
// within the same test to share the same database
var testDBCache = make(map[string]*gorm.DB)
var testDBCacheMu sync.Mutex

// TestDBManager wraps cartridge's TestDBManager with lovdash's interface
type TestDBManager struct {
	*ctestsupport.TestDBManager
}

// NewTestDBManager creates a TestDBManager that implements cartridge.DBManager
func NewTestDBManager(db *gorm.DB) *TestDBManager {
	return &TestDBManager{
		TestDBManager: ctestsupport.NewTestDBManager(db),
	}
}

// Ensure TestDBManager implements cartridge.DBManager
var _ cartridge.DBManager = (*TestDBManager)(nil)

func allModels() []any {
	return []any{
		&cache.CacheRecord{},
		&users.User{},
		&links.BioLink{},
		&events.PageViewEvent{},
		&events.LinkClickEvent{},
	}
}

// SetupTestDB creates a test database with all lovdash models migrated.
// Uses a named in-memory database with cache=shared so multiple connections
// within a test share state; caches per root test name so subtests reuse it.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	testName := t.Name()
	rootName := testName
	if idx := strings.Index(testName, "/"); idx > 0 {
		rootName = testName[:idx]
	}

	testDBCacheMu.Lock()
	if db, exists := testDBCache[rootName]; exists {
		testDBCacheMu.Unlock()
		return db
	}
	testDBCacheMu.Unlock()

	sanitizedName := strings.ReplaceAll(rootName, "/", "_")
	dsn := fmt.Sprintf("file:test_%s_%d?mode=memory&cache=shared", sanitizedName, time.Now().UnixNano())

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("testsupport: failed to open test database: %v", err)
	}

	db.Exec("PRAGMA foreign_keys = ON")
	db.Exec("PRAGMA journal_mode = WAL")

	if err := db.AutoMigrate(allModels()...); err != nil {
		t.Fatalf("testsupport: failed to migrate models: %v", err)
	}

	testDBCacheMu.Lock()
	testDBCache[rootName] = db
	testDBCacheMu.Unlock()

	t.Cleanup(func() {
		testDBCacheMu.Lock()
		delete(testDBCache, rootName)
		testDBCacheMu.Unlock()
		sqlDB, err := db.DB()
		if err == nil {
			sqlDB.Close()
		}
	})

	return db
}

// SetupTestDBManager creates a test DB manager using cartridge's testsupport
func SetupTestDBManager(t *testing.T) (*TestDBManager, *slog.Logger) {
	cfg := config.GetConfig()
	if cfg.Environment != config.Test {
		t.Fatalf("CRITICAL: Tests must run in test environment! Current: %s. Set LOVDASH_ENV=test", cfg.Environment)
	}

	db := SetupTestDB(t)
	return NewTestDBManager(db), GetLogger()
}

// GetLogger returns a test logger
func GetLogger() *slog.Logger {
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError})
	return slog.New(handler)
}

func testPasswordHash(t *testing.T) string {
	t.Helper()

	hashed, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hashed)
}

// CreateTestCreator inserts a creator and returns it. The password is always
// "password123"; auth paths in tests use tokens, not logins.
func CreateTestCreator(t *testing.T, db *gorm.DB, email, username string) *users.User {
	t.Helper()

	user := &users.User{
		Email:             email,
		Username:          username,
		Role:              users.RoleCreator,
		EncryptedPassword: testPasswordHash(t),
		CreatedAt:         time.Now().UTC(),
		UpdatedAt:         time.Now().UTC(),
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

// CreateTestAgency inserts an agency operator.
func CreateTestAgency(t *testing.T, db *gorm.DB, email, username string) *users.User {
	t.Helper()

	user := &users.User{
		Email:             email,
		Username:          username,
		Role:              users.RoleAgency,
		EncryptedPassword: testPasswordHash(t),
		CreatedAt:         time.Now().UTC(),
		UpdatedAt:         time.Now().UTC(),
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

// CreateTestAdmin inserts a platform admin.
func CreateTestAdmin(t *testing.T, db *gorm.DB, email string) *users.User {
	t.Helper()

	user := &users.User{
		Email:             email,
		Username:          email,
		Role:              users.RoleAdmin,
		EncryptedPassword: testPasswordHash(t),
		CreatedAt:         time.Now().UTC(),
		UpdatedAt:         time.Now().UTC(),
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

// AssignAgency links a creator to an agency operator.
func AssignAgency(t *testing.T, db *gorm.DB, creator, agency *users.User) {
	t.Helper()

	creator.AgencyID = &agency.ID
	require.NoError(t, db.Save(creator).Error)
}

// CreateTestBioLink inserts a bio link for a creator.
func CreateTestBioLink(t *testing.T, db *gorm.DB, creatorID uint, slug string) *links.BioLink {
	t.Helper()

	link := &links.BioLink{CreatorID: creatorID, Slug: slug, CreatedAt: time.Now().UTC()}
	require.NoError(t, db.Create(link).Error)
	return link
}

// PageViewOpts tweaks the defaults of CreateTestPageView.
type PageViewOpts struct {
	VisitorID  *string
	IPHash     string
	Country    string
	DeviceType string
	Browser    string
	Referrer   *string
	CreatedAt  time.Time
}

// CreateTestPageView inserts a page-view row with sensible defaults.
func CreateTestPageView(t *testing.T, db *gorm.DB, linkID uint, opts PageViewOpts) *events.PageViewEvent {
	t.Helper()

	if opts.Country == "" {
		opts.Country = "United States"
	}
	if opts.DeviceType == "" {
		opts.DeviceType = "desktop"
	}
	if opts.Browser == "" {
		opts.Browser = "Chrome"
	}
	if opts.CreatedAt.IsZero() {
		opts.CreatedAt = time.Now().UTC()
	}

	view := &events.PageViewEvent{
		LinkID:     linkID,
		VisitorID:  opts.VisitorID,
		IPHash:     opts.IPHash,
		Country:    opts.Country,
		City:       "Unknown",
		Region:     "Unknown",
		Referrer:   opts.Referrer,
		UserAgent:  "Mozilla/5.0 Test Browser",
		DeviceType: opts.DeviceType,
		Browser:    opts.Browser,
		OS:         "Windows",
		CreatedAt:  opts.CreatedAt,
	}
	require.NoError(t, db.Create(view).Error)
	return view
}

// LinkClickOpts tweaks the defaults of CreateTestLinkClick.
type LinkClickOpts struct {
	VisitorID *string
	IPHash    string
	Label     string
	URL       string
	CreatedAt time.Time
}

// CreateTestLinkClick inserts a link-click row with sensible defaults.
func CreateTestLinkClick(t *testing.T, db *gorm.DB, linkID uint, opts LinkClickOpts) *events.LinkClickEvent {
	t.Helper()

	if opts.Label == "" {
		opts.Label = "Instagram"
	}
	if opts.URL == "" {
		opts.URL = "https://instagram.com/test"
	}
	if opts.CreatedAt.IsZero() {
		opts.CreatedAt = time.Now().UTC()
	}

	click := &events.LinkClickEvent{
		LinkID:     linkID,
		LinkLabel:  opts.Label,
		LinkURL:    opts.URL,
		VisitorID:  opts.VisitorID,
		IPHash:     opts.IPHash,
		Country:    "United States",
		DeviceType: "desktop",
		CreatedAt:  opts.CreatedAt,
	}
	require.NoError(t, db.Create(click).Error)
	return click
}

// BearerToken issues a signed token for a user, for Authorization headers.
func BearerToken(t *testing.T, user *users.User) string {
	t.Helper()

	token, err := auth.IssueToken(user)
	require.NoError(t, err)
	return "Bearer " + token
}

// CreateMinimalTestApp creates a test Fiber app with all routes mounted.
func CreateMinimalTestApp(t *testing.T, db *gorm.DB) *fiber.App {
	t.Helper()

	dbManager := NewTestDBManager(db)
	appConfig := config.GetConfig()
	appConfig.Environment = config.Test

	cfg := cartridge.DefaultServerConfig()
	cfg.Config = appConfig
	cfg.Logger = GetLogger()
	cfg.DBManager = dbManager

	srv, err := cartridge.NewServer(cfg)
	require.NoError(t, err)

	internal.MountAppRoutes(srv)
	return srv.App()
}

// CleanAllTables clears all non-system tables in the database
func CleanAllTables(db *gorm.DB) {
	var tableNames []string
	db.Raw("SELECT name FROM sqlite_master WHERE type='table' AND name NOT LIKE 'sqlite_%'").Scan(&tableNames)

	var tables []string
	for _, name := range tableNames {
		if name != "migrations" && name != "schema_migrations" {
			tables = append(tables, name)
		}
	}
	if len(tables) == 0 {
		return
	}

	db.Exec("PRAGMA foreign_keys = OFF")
	defer db.Exec("PRAGMA foreign_keys = ON")

	db.Transaction(func(tx *gorm.DB) error {
		for _, table := range tables {
			tx.Exec("DELETE FROM " + table)
			tx.Exec("DELETE FROM sqlite_sequence WHERE name=?", table)
		}
		return nil
	})
}
