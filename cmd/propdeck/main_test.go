package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/vanderheijden86/propdeck/pkg/config"
)

func TestResolveSourceFixtureFlagWinsOverFeeds(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Feeds = []config.Feed{{Name: "dk", URL: "https://odds.example.com/props"}}

	src, title, err := resolveSource(&cfg, "", "/tmp/props.json", "", "")
	if err != nil {
		t.Fatalf("resolveSource: %v", err)
	}
	if src.fixture == nil {
		t.Fatal("expected a fixture source")
	}
	if src.key != "fixture:/tmp/props.json" {
		t.Errorf("key = %q", src.key)
	}
	if title != "props.json" {
		t.Errorf("title = %q", title)
	}
}

func TestResolveSourceEndpointFlag(t *testing.T) {
	cfg := config.DefaultConfig()

	src, title, err := resolveSource(&cfg, "", "", "https://direct.example.com/v1", "")
	if err != nil {
		t.Fatalf("resolveSource: %v", err)
	}
	if src.fixture != nil {
		t.Error("endpoint source should not carry a fixture")
	}
	if src.key != "https://direct.example.com/v1" || title != "https://direct.example.com/v1" {
		t.Errorf("key = %q title = %q", src.key, title)
	}
}

func TestResolveSourceNamedFeed(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Feeds = []config.Feed{
		{Name: "dk", URL: "https://dk.example.com", League: "NBA"},
		{Name: "fd", URL: "https://fd.example.com"},
	}

	src, title, err := resolveSource(&cfg, "FD", "", "", "")
	if err != nil {
		t.Fatalf("resolveSource: %v", err)
	}
	if src.key != "https://fd.example.com" {
		t.Errorf("key = %q", src.key)
	}
	if title != "fd" {
		t.Errorf("title = %q", title)
	}
}

func TestResolveSourceUnknownFeedErrors(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Feeds = []config.Feed{{Name: "dk", URL: "https://dk.example.com"}}

	_, _, err := resolveSource(&cfg, "nope", "", "", "")
	if err == nil || !strings.Contains(err.Error(), "nope") {
		t.Fatalf("expected unknown-feed error, got %v", err)
	}
}

func TestResolveSourceFavoriteBeatsFirstFeed(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Feeds = []config.Feed{
		{Name: "dk", URL: "https://dk.example.com"},
		{Name: "fd", URL: "https://fd.example.com", League: "NFL"},
	}
	cfg.SetFavorite(1, "fd")

	src, title, err := resolveSource(&cfg, "", "", "", "")
	if err != nil {
		t.Fatalf("resolveSource: %v", err)
	}
	if src.key != "https://fd.example.com" {
		t.Errorf("key = %q", src.key)
	}
	if title != "fd (NFL)" {
		t.Errorf("title = %q", title)
	}
}

func TestResolveSourceFeedFixtureField(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Feeds = []config.Feed{{Name: "local", Fixture: "/data/nba.json", League: "NBA"}}

	src, title, err := resolveSource(&cfg, "local", "", "", "")
	if err != nil {
		t.Fatalf("resolveSource: %v", err)
	}
	if src.fixture == nil {
		t.Fatal("expected a fixture source")
	}
	if src.key != "fixture:/data/nba.json" {
		t.Errorf("key = %q", src.key)
	}
	if title != "local (NBA)" {
		t.Errorf("title = %q", title)
	}
}

func TestResolveSourceNoFeedsWithoutTerminal(t *testing.T) {
	// Stdin is not a pty under go test, so the wizard path must refuse
	// rather than hang waiting for input.
	cfg := config.DefaultConfig()

	_, _, err := resolveSource(&cfg, "", "", "", "")
	if err == nil {
		t.Fatal("expected an error with no feeds configured")
	}
	if !strings.Contains(err.Error(), "--endpoint") {
		t.Errorf("error should point at the flags, got %v", err)
	}
}

func TestLoadConfigExplicitPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yml")
	data := "feeds:\n  - name: dk\n    url: https://dk.example.com\nfetch:\n  page_size: 250\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := loadConfig(path)
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if len(cfg.Feeds) != 1 || cfg.Feeds[0].Name != "dk" {
		t.Errorf("feeds = %+v", cfg.Feeds)
	}
	if cfg.Fetch.PageSize != 250 {
		t.Errorf("page size = %d", cfg.Fetch.PageSize)
	}
}

func TestFixtureSourcePagesThroughCacheFetcher(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "props.json")
	data := `[{"player":"Jalen Smith","team":"NYK","market":"points","line":"20.5"},
	{"player":"Marc Diaz","team":"BOS","market":"rebounds","line":"8.5"}]`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	cfg := config.DefaultConfig()
	src, _, err := resolveSource(&cfg, "", path, "", "")
	if err != nil {
		t.Fatalf("resolveSource: %v", err)
	}
	page, err := src.fetch(context.Background(), 0, 1)
	if err != nil {
		t.Fatalf("fetch page: %v", err)
	}
	if len(page) != 1 || page[0].Player != "Jalen Smith" {
		t.Errorf("page = %+v", page)
	}
	rest, err := src.fetch(context.Background(), 1, 10)
	if err != nil {
		t.Fatalf("fetch rest: %v", err)
	}
	if len(rest) != 1 || rest[0].Player != "Marc Diaz" {
		t.Errorf("rest = %+v", rest)
	}
}
