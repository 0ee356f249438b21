package model

// SongTotals are the sums over the whole song table.
type SongTotals struct {
	Songs          int64 `json:"songs"`
	Listens        int64 `json:"listens"`
	Downloads      int64 `json:"downloads"`
	DurationSecs   int64 `json:"durationSeconds"`
	FileSizeBytes  int64 `json:"fileSizeBytes"`
	Albums         int64 `json:"albums"`
	Artists        int64 `json:"artists"`
	UnlinkedGenres int64 `json:"unlinkedGenres"`
}

// Overview is the catalog-wide summary shown by `stats overview`.
type Overview struct {
	SongTotals
	Playlists     int64               `json:"playlists"`
	Genres        int64               `json:"genres"`
	Tags          int64               `json:"tags"`
	Ratings       int64               `json:"ratings"`
	RatedSongs    int64               `json:"ratedSongs"`
	AverageRating float64             `json:"averageRating"`
	EventsByType  map[EventType]int64 `json:"eventsByType"`
}

// Optional song fields tracked by the missing-field report.
const (
	FieldDescription = "description"
	FieldGenre       = "genre"
	FieldAlbum       = "album"
	FieldLyrics      = "lyrics"
	FieldCoverArt    = "cover_art"
	FieldTags        = "tags"
	FieldComposer    = "composer"
	FieldLyricist    = "lyricist"
)

// MissingFields lists the tracked optional fields in report order.
var MissingFields = []string{
	FieldDescription,
	FieldGenre,
	FieldAlbum,
	FieldLyrics,
	FieldCoverArt,
	FieldTags,
	FieldComposer,
	FieldLyricist,
}
