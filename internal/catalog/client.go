// Package catalog searches the Spotify catalog for track and artist
// metadata used by setlist entry and practice song autocomplete.
package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2/clientcredentials"
)

const searchLimit = 5

// Track is one catalog search hit for a track.
type Track struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Artist     string `json:"artist"`
	Album      string `json:"album"`
	AlbumArt   string `json:"album_art,omitempty"`
	DurationMS int    `json:"duration_ms"`
}

// Artist is one catalog search hit for an artist.
type Artist struct {
	ID     string   `json:"id"`
	Name   string   `json:"name"`
	Genres []string `json:"genres,omitempty"`
	Image  string   `json:"image,omitempty"`
}

// Client wraps the Spotify API client with the app's search methods.
// It uses the client credentials flow, so only public catalog data is
// reachable; no user authorization is involved.
type Client struct {
	api    *spotify.Client
	market string
}

// New creates a catalog client. The token source refreshes itself, so
// the client is safe to hold for the life of the process.
func New(ctx context.Context, clientID, clientSecret, market string) *Client {
	cfg := &clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     spotifyauth.TokenURL,
	}
	httpClient := cfg.Client(ctx)
	return &Client{
		api:    spotify.New(httpClient),
		market: market,
	}
}

// SearchTracks searches the catalog for tracks matching query.
func (c *Client) SearchTracks(ctx context.Context, query string) ([]Track, error) {
	result, err := c.api.Search(ctx, query, spotify.SearchTypeTrack,
		spotify.Limit(searchLimit), spotify.Market(c.market))
	if err != nil {
		return nil, fmt.Errorf("searching tracks: %w", err)
	}

	if result.Tracks == nil {
		return []Track{}, nil
	}
	tracks := make([]Track, 0, len(result.Tracks.Tracks))
	for _, t := range result.Tracks.Tracks {
		tracks = append(tracks, convertTrack(t))
	}
	return tracks, nil
}

// SearchArtists searches the catalog for artists matching query.
func (c *Client) SearchArtists(ctx context.Context, query string) ([]Artist, error) {
	result, err := c.api.Search(ctx, query, spotify.SearchTypeArtist,
		spotify.Limit(searchLimit), spotify.Market(c.market))
	if err != nil {
		return nil, fmt.Errorf("searching artists: %w", err)
	}

	if result.Artists == nil {
		return []Artist{}, nil
	}
	artists := make([]Artist, 0, len(result.Artists.Artists))
	for _, a := range result.Artists.Artists {
		artists = append(artists, convertArtist(a))
	}
	return artists, nil
}

// convertTrack converts a Spotify FullTrack to a catalog Track.
func convertTrack(t spotify.FullTrack) Track {
	names := make([]string, len(t.Artists))
	for i, a := range t.Artists {
		names[i] = a.Name
	}

	track := Track{
		ID:         t.ID.String(),
		Name:       t.Name,
		Artist:     strings.Join(names, ", "),
		Album:      t.Album.Name,
		DurationMS: int(t.Duration),
	}
	if len(t.Album.Images) > 0 {
		track.AlbumArt = t.Album.Images[0].URL
	}
	return track
}

// convertArtist converts a Spotify FullArtist to a catalog Artist.
func convertArtist(a spotify.FullArtist) Artist {
	artist := Artist{
		ID:     a.ID.String(),
		Name:   a.Name,
		Genres: a.Genres,
	}
	if len(a.Images) > 0 {
		artist.Image = a.Images[0].URL
	}
	return artist
}
