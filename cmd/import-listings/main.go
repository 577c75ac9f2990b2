// Command import-listings creates listings from markdown files. Each file starts with a TOML front matter
// block holding the form fields; the markdown after it becomes the description.
//
//	+++
//	title = "Cabin by the lake"
//	propertyType = "house"
//	listingType = "sale"
//	price = 185000
//	city = "Bled"
//	images = ["https://cdn.example.com/cabin.jpg"]
//	features = ["fireplace"]
//	+++
//	Wood stove and a **lake view**.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/debemdeboas/homestead/internal/config"
	"github.com/debemdeboas/homestead/internal/db"
	"github.com/debemdeboas/homestead/internal/draft"
	"github.com/debemdeboas/homestead/internal/listing"
	"github.com/debemdeboas/homestead/internal/logger"
	"github.com/debemdeboas/homestead/internal/model"
	"github.com/debemdeboas/homestead/internal/repository"
	"github.com/debemdeboas/homestead/internal/util"
	"github.com/debemdeboas/homestead/internal/wizard"
)

func main() {
	path := flag.String("path", "", "Directory containing .md listing files")
	ownerID := flag.String("owner-id", "", "Owner user ID for the listings")
	formName := flag.String("form", string(draft.FormFull), "Form whose steps validate each file (quick or full)")
	configPath := flag.String("config", config.DefaultConfigPath, "Path to config.yaml")
	flag.Parse()

	l := logger.New("info")
	config.SetLogger(logger.Component(l, "config"))
	db.SetLogger(logger.Component(l, "db"))
	repository.SetLogger(logger.Component(l, "repository"))
	listing.SetLogger(logger.Component(l, "listing"))

	if *path == "" || *ownerID == "" {
		l.Fatal().Msg("Both --path and --owner-id flags are required")
	}

	form, err := draft.DefaultForms().Lookup(*formName)
	if err != nil {
		l.Fatal().Err(err).Str("form", *formName).Msg("Unknown form")
	}

	if err := config.LoadConfig(*configPath); err != nil {
		l.Fatal().Err(err).Msg("Failed to load config")
	}

	database := db.NewSQLite(config.AppConfig.Storage.SQLitePath)
	if err := database.InitDB(); err != nil {
		l.Fatal().Err(err).Msgf(config.ErrInitializeDatabaseFmt, err)
	}
	defer database.Close()

	service := listing.NewService(repository.NewDBListingRepository(database), nil)

	files, err := os.ReadDir(*path)
	if err != nil {
		l.Fatal().Err(err).Str("path", *path).Msg("Error reading directory")
	}

	ctx := context.Background()
	imported := 0
	for _, file := range files {
		if file.IsDir() || !strings.HasSuffix(file.Name(), ".md") {
			continue
		}

		fl := l.With().Str("file", file.Name()).Logger()
		created, err := importFile(ctx, service, form.Flow, model.UserID(*ownerID), filepath.Join(*path, file.Name()))
		if err != nil {
			var incomplete *wizard.IncompleteError
			if errors.As(err, &incomplete) {
				fl.Error().Str("step", incomplete.Step).Strs("missing", incomplete.Missing).Msg("Listing incomplete")
			} else {
				fl.Error().Err(err).Msg("Error importing listing")
			}
			continue
		}

		imported++
		fl.Info().Str("listing_id", string(created.ID)).Msg("Imported listing")
	}

	l.Info().Int("imported", imported).Msg("Import finished")
}

// readSnapshot turns a markdown file into a form snapshot.
func readSnapshot(content []byte) (draft.Snapshot, error) {
	fields := map[string]any{}
	body, err := util.GetFrontMatter(content, &fields)
	if err != nil {
		return draft.Snapshot{}, err
	}

	var features []string
	if raw, ok := fields["features"].([]any); ok {
		for _, f := range raw {
			if s, ok := f.(string); ok {
				features = append(features, s)
			}
		}
		delete(fields, "features")
	}

	if desc := strings.TrimSpace(string(body)); desc != "" {
		fields["description"] = desc
	}

	return draft.Snapshot{FormData: fields, Features: features}, nil
}

func importFile(ctx context.Context, service *listing.Service, flow *wizard.Flow, owner model.UserID, path string) (*model.Listing, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	snap, err := readSnapshot(content)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}

	return service.Submit(ctx, owner, flow, snap)
}
