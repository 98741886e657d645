package video

import (
	"strings"
	"time"
)

const (
	sampleMediaBase = "https://commondatastorage.googleapis.com/gtv-videos-library/sample/"
	thumbnailBase   = "https://images.unsplash.com/photo-"
	thumbnailParams = "?w=500&h=280&fit=crop"

	syndicatedIDPrefix = "api_"
)

// SyndicatedOrigins lists the hosts serving syndicated media and thumbnails.
func SyndicatedOrigins() []string {
	return []string{"https://commondatastorage.googleapis.com", "https://images.unsplash.com"}
}

type syndicatedEntry struct {
	id          ID
	title       string
	description string
	media       string
	photo       string
	duration    int
	ownerID     string
	views       int64
	likes       int64
	daysAgo     int
	channel     string
}

// syndicatedEntries is fixed filler content appended to every successful
// catalog read. It is never persisted.
var syndicatedEntries = []syndicatedEntry{
	{"api_1", "Lo-Fi Beats for Studying", "Relaxing lo-fi hip hop beats perfect for studying and working", "ForBiggerBlazes.mp4", "1493225457124-a3eb161ffa5f", 3600, "api_user_1", 15000, 520, 2, "Music Channel"},
	{"api_2", "Deep House Sessions 2024", "Premium deep house and tech house music mix", "ElephantsDream.mp4", "1470225620780-dba8ba36b745", 2880, "api_user_2", 28500, 1250, 1, "DJ Studio"},
	{"api_3", "Ambient Music for Relaxation", "Calming ambient sounds for meditation and relaxation", "BigBuckBunny.mp4", "1459749411175-04bf5292ceea", 2400, "api_user_3", 32100, 1840, 3, "Zen Sounds"},
	{"api_4", "Electronic Music Compilation", "Best electronic and synth pop tracks", "ForBiggerBlazes.mp4", "1487180144351-b8472da7d491", 3240, "api_user_4", 18900, 670, 4, "Synthwave Vibes"},
	{"api_5", "Jazz Classics Collection", "Smooth jazz music for all occasions", "ElephantsDream.mp4", "1511379938547-c1f69b13d835", 3900, "api_user_5", 45200, 2310, 5, "Jazz Lounge"},
	{"api_6", "Indie Pop Hits 2024", "Latest indie pop tracks and covers", "BigBuckBunny.mp4", "1511379938547-c1f69b13d835", 2700, "api_user_6", 22400, 950, 6, "Indie Vibes"},
	{"api_7", "Trap Beats Production", "Original trap and hip hop beat production", "ForBiggerBlazes.mp4", "1514525253161-7a46d19cd819", 3000, "api_user_7", 38700, 1620, 7, "Beat Maker Studio"},
	{"api_8", "Classical Orchestra Music", "Beautiful classical orchestral compositions", "ElephantsDream.mp4", "1459749411175-04bf5292ceea", 4200, "api_user_8", 51800, 2850, 8, "Classical Music Society"},
}

func (e syndicatedEntry) video(now time.Time) Video {
	description := e.description
	thumbnail := thumbnailBase + e.photo + thumbnailParams
	return Video{
		ID:           e.id,
		Title:        e.title,
		Description:  &description,
		VideoURL:     sampleMediaBase + e.media,
		ThumbnailURL: &thumbnail,
		Duration:     e.duration,
		Views:        e.views,
		Likes:        e.likes,
		CreatedAt:    now.Add(-time.Duration(e.daysAgo) * 24 * time.Hour).UTC(),
		OwnerID:      e.ownerID,
		Profile:      &ProfileSnapshot{Name: e.channel},
	}
}

// Syndicated builds the syndicated set with timestamps relative to now.
func Syndicated(now time.Time) []Video {
	videos := make([]Video, 0, len(syndicatedEntries))
	for _, e := range syndicatedEntries {
		videos = append(videos, e.video(now))
	}
	return videos
}

func IsSyndicated(id ID) bool {
	return strings.HasPrefix(string(id), syndicatedIDPrefix)
}

func syndicatedByID(id ID, now time.Time) (Video, bool) {
	if !IsSyndicated(id) {
		return Video{}, false
	}
	for _, e := range syndicatedEntries {
		if e.id == id {
			return e.video(now), true
		}
	}
	return Video{}, false
}
