// Package music is a sample domain persisted by generated serializers.
package music

//go:generate go run ../../.. -package .

// Genre is read through the generic accessor.
type Genre string

//boxfit:entity
type Album struct {
	ID      uint64
	Name    string
	Year    int      `boxfit:"releaseYear,optional"`
	Genre   Genre    `boxfit:",optional"`
	Artist  *Artist  `json:"artist"`
	Cover   Cover    `boxfit:",optional"`
	Tracks  []*Track `boxfit:",optional"`
	Bonus   []Track  `boxfit:",optional"`
	Comment string   `boxfit:"-"`
}

//boxfit:entity unique=Name
type Artist struct {
	ID      uint64
	Name    string
	Country string `boxfit:",optional"`
}

//boxfit:entity
type Cover struct {
	ID  uint64
	URL string `json:"url"`
}

//boxfit:entity
type Track struct {
	ID       uint64
	Title    string
	Duration int64 `json:"duration_ms"`
	Explicit bool  `boxfit:",optional"`
}
