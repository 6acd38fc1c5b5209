package catalog

import (
	"testing"

	"github.com/zmb3/spotify/v2"
)

func TestConvertTrack(t *testing.T) {
	tests := []struct {
		name string
		in   spotify.FullTrack
		want Track
	}{
		{
			name: "single artist with album art",
			in: spotify.FullTrack{
				SimpleTrack: spotify.SimpleTrack{
					ID:       "track123",
					Name:     "Blue Train",
					Duration: 215000,
					Artists: []spotify.SimpleArtist{
						{Name: "John Coltrane"},
					},
				},
				Album: spotify.SimpleAlbum{
					Name: "Blue Train",
					Images: []spotify.Image{
						{URL: "https://img.example/large.jpg"},
						{URL: "https://img.example/small.jpg"},
					},
				},
			},
			want: Track{
				ID:         "track123",
				Name:       "Blue Train",
				Artist:     "John Coltrane",
				Album:      "Blue Train",
				AlbumArt:   "https://img.example/large.jpg",
				DurationMS: 215000,
			},
		},
		{
			name: "multiple artists join with comma",
			in: spotify.FullTrack{
				SimpleTrack: spotify.SimpleTrack{
					ID:   "track456",
					Name: "Duet",
					Artists: []spotify.SimpleArtist{
						{Name: "Artist A"},
						{Name: "Artist B"},
					},
				},
				Album: spotify.SimpleAlbum{Name: "Duets"},
			},
			want: Track{
				ID:     "track456",
				Name:   "Duet",
				Artist: "Artist A, Artist B",
				Album:  "Duets",
			},
		},
		{
			name: "no artists and no images",
			in: spotify.FullTrack{
				SimpleTrack: spotify.SimpleTrack{
					ID:      "track789",
					Name:    "Unknown",
					Artists: []spotify.SimpleArtist{},
				},
			},
			want: Track{ID: "track789", Name: "Unknown"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := convertTrack(tt.in)
			if got != tt.want {
				t.Errorf("convertTrack() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestConvertArtist(t *testing.T) {
	in := spotify.FullArtist{
		SimpleArtist: spotify.SimpleArtist{
			ID:   "artist1",
			Name: "Tatsuro Yamashita",
		},
		Genres: []string{"city pop", "j-pop"},
		Images: []spotify.Image{{URL: "https://img.example/a.jpg"}},
	}

	got := convertArtist(in)
	if got.ID != "artist1" || got.Name != "Tatsuro Yamashita" {
		t.Errorf("identity fields = %+v", got)
	}
	if len(got.Genres) != 2 || got.Genres[0] != "city pop" {
		t.Errorf("genres = %v", got.Genres)
	}
	if got.Image != "https://img.example/a.jpg" {
		t.Errorf("image = %q", got.Image)
	}
}

func TestConvertArtistNoImages(t *testing.T) {
	got := convertArtist(spotify.FullArtist{
		SimpleArtist: spotify.SimpleArtist{ID: "artist2", Name: "Nameless"},
	})
	if got.Image != "" {
		t.Errorf("image = %q, want empty", got.Image)
	}
}
