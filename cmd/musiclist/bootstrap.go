package main

import (
	"context"
	"errors"
	"fmt"

	"musiclist/internal/apperr"
	"musiclist/internal/httpapi"
	"musiclist/internal/logging"
)

const (
	demoUsername = "demo"
	demoPassword = "demo123"
)

type seedSong struct {
	Name   string
	Artist string
	Link   string
}

var demoSongs = []seedSong{
	{Name: "Roygbiv", Artist: "Boards of Canada"},
	{Name: "Teardrop", Artist: "Massive Attack"},
	{Name: "Glory Box", Artist: "Portishead"},
	{Name: "Paranoid Android", Artist: "Radiohead"},
	{Name: "Kerala", Artist: "Bonobo"},
	{Name: "Them Changes", Artist: "Thundercat"},
}

// bootstrapDemoData creates the demo account and a small song catalog.
// Records that already exist are left alone.
func bootstrapDemoData(ctx context.Context, svc httpapi.Services) error {
	if _, err := svc.Users.Register(ctx, demoUsername, demoPassword, demoPassword); err != nil && !errors.Is(err, apperr.ErrUsernameTaken) {
		return fmt.Errorf("bootstrap demo user: %w", err)
	}

	added := 0
	for _, song := range demoSongs {
		_, err := svc.Songs.Add(ctx, song.Name, song.Artist, song.Link)
		if errors.Is(err, apperr.ErrSongExists) {
			continue
		}
		if err != nil {
			return fmt.Errorf("bootstrap demo song %q: %w", song.Name, err)
		}
		added++
	}

	logging.WithContext(ctx).Info().Int("songs_added", added).Msg("demo data ready")
	return nil
}
