package seeder

import (
	"fmt"
	"math/rand/v2"
	"time"

	"log/slog"

	"github.com/karloscodes/cartridge"

	"lovdash/internal/config"
	"lovdash/internal/events"
	"lovdash/internal/links"
	"lovdash/internal/users"
	"lovdash/internal/visitors"
)

// Seeder populates a development database with demo creators, bio links and
// synthetic tracking events spread over the last 90 days.
type Seeder struct {
	DBManager  cartridge.DBManager
	Logger     *slog.Logger
	EventCount int
}

// NewSeeder creates a new seeder instance.
func NewSeeder(dbManager cartridge.DBManager, logger *slog.Logger, eventCount int) *Seeder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Seeder{
		DBManager:  dbManager,
		Logger:     logger,
		EventCount: eventCount,
	}
}

type demoCreator struct {
	email    string
	username string
	slug     string
	items    []demoItem
}

type demoItem struct {
	label string
	url   string
}

var demoCreators = []demoCreator{
	{
		email:    "luna@example.com",
		username: "luna",
		slug:     "luna",
		items: []demoItem{
			{"Instagram", "https://instagram.com/luna"},
			{"YouTube", "https://youtube.com/@luna"},
			{"Merch Store", "https://shop.example.com/luna"},
		},
	},
	{
		email:    "maxfit@example.com",
		username: "maxfit",
		slug:     "maxfit",
		items: []demoItem{
			{"Training Plans", "https://plans.example.com/maxfit"},
			{"TikTok", "https://tiktok.com/@maxfit"},
		},
	},
	{
		email:    "ari.codes@example.com",
		username: "ari",
		slug:     "ari-codes",
		items: []demoItem{
			{"GitHub", "https://github.com/ari"},
			{"Newsletter", "https://news.example.com/ari"},
			{"Twitch", "https://twitch.tv/aricodes"},
		},
	},
}

var seedUserAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36",
	"Mozilla/5.0 (iPhone; CPU iPhone OS 17_5 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.5 Mobile/15E148 Safari/604.1",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4 Safari/605.1.15",
	"Mozilla/5.0 (Linux; Android 14; Pixel 8) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/125.0.0.0 Mobile Safari/537.36",
	"Mozilla/5.0 (iPad; CPU OS 17_4 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4 Mobile/15E148 Safari/604.1",
	"Mozilla/5.0 (X11; Linux x86_64; rv:127.0) Gecko/20100101 Firefox/127.0",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36 Edg/126.0.0.0",
}

var seedReferrers = []*string{
	nil, // direct traffic
	ptr("https://www.instagram.com/"),
	ptr("https://t.co/abc123"),
	ptr("https://www.tiktok.com/"),
	ptr("https://www.youtube.com/"),
	ptr("https://www.google.com/search?q=bio"),
	nil,
	nil,
}

var seedCountries = []string{"United States", "Germany", "Brazil", "Japan", "United Kingdom", "Unknown"}

func ptr(s string) *string { return &s }

// Seed creates the demo creators with their bio links and generates
// EventCount synthetic events across them.
func (s *Seeder) Seed() error {
	start := time.Now()
	s.Logger.Info("Seeding demo data...", slog.Int("eventCount", s.EventCount))

	db := s.DBManager.GetConnection()

	seeded := make([]*links.BioLink, 0, len(demoCreators))
	for _, dc := range demoCreators {
		creator, err := users.CreateUser(db, dc.email, dc.username, "password123", users.RoleCreator)
		if err != nil {
			return fmt.Errorf("failed to create demo creator %s: %w", dc.username, err)
		}

		link := &links.BioLink{CreatorID: creator.ID, Slug: dc.slug}
		if err := db.Create(link).Error; err != nil {
			return fmt.Errorf("failed to create bio link for %s: %w", dc.username, err)
		}
		seeded = append(seeded, link)
		s.Logger.Info("Seeded creator",
			slog.String("username", dc.username),
			slog.Uint64("link_id", uint64(link.ID)))
	}

	if err := s.generateEvents(seeded); err != nil {
		return err
	}

	s.Logger.Info("Seeding completed", slog.Duration("elapsed", time.Since(start)))
	return nil
}

// generateEvents writes synthetic page views and clicks in batches. Roughly
// a third of views produce a click, matching a believable bio-page CTR.
func (s *Seeder) generateEvents(seeded []*links.BioLink) error {
	db := s.DBManager.GetConnection()
	cfg := config.GetConfig()
	now := time.Now().UTC()

	visitorPool := make([]string, 60)
	for i := range visitorPool {
		visitorPool[i] = fmt.Sprintf("seed-visitor-%02d", i)
	}

	views := make([]events.PageViewEvent, 0, s.EventCount)
	clicks := make([]events.LinkClickEvent, 0, s.EventCount/3)

	for i := 0; i < s.EventCount; i++ {
		linkIdx := rand.IntN(len(seeded))
		link := seeded[linkIdx]
		dc := demoCreators[linkIdx]

		createdAt := now.Add(-time.Duration(rand.IntN(90*24)) * time.Hour)
		visitorID := visitorPool[rand.IntN(len(visitorPool))]
		ip := fmt.Sprintf("203.0.113.%d", rand.IntN(200)+1)
		ipHash := visitors.HashIP(ip, cfg.PrivateKey)
		ua := seedUserAgents[rand.IntN(len(seedUserAgents))]
		referrer := seedReferrers[rand.IntN(len(seedReferrers))]
		country := seedCountries[rand.IntN(len(seedCountries))]

		deviceType := "desktop"
		if rand.IntN(10) < 4 {
			deviceType = "mobile"
		}

		views = append(views, events.PageViewEvent{
			LinkID:     link.ID,
			VisitorID:  &visitorID,
			IPHash:     ipHash,
			Country:    country,
			City:       "Unknown",
			Region:     "Unknown",
			Referrer:   referrer,
			UserAgent:  ua,
			DeviceType: deviceType,
			Browser:    "Chrome",
			OS:         "Windows",
			CreatedAt:  createdAt,
		})

		if rand.IntN(3) == 0 {
			item := dc.items[rand.IntN(len(dc.items))]
			clicks = append(clicks, events.LinkClickEvent{
				LinkID:     link.ID,
				LinkLabel:  item.label,
				LinkURL:    item.url,
				VisitorID:  &visitorID,
				IPHash:     ipHash,
				Country:    country,
				Referrer:   referrer,
				DeviceType: deviceType,
				CreatedAt:  createdAt.Add(time.Duration(rand.IntN(120)) * time.Second),
			})
		}
	}

	if err := db.CreateInBatches(views, 500).Error; err != nil {
		return fmt.Errorf("failed to seed page views: %w", err)
	}
	if err := db.CreateInBatches(clicks, 500).Error; err != nil {
		return fmt.Errorf("failed to seed link clicks: %w", err)
	}

	s.Logger.Info("Seeded tracking events",
		slog.Int("views", len(views)),
		slog.Int("clicks", len(clicks)))
	return nil
}
