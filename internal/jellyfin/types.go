package jellyfin

// Item type discriminants returned by the media server.
const (
	TypeEpisode = "Episode"
	TypeMovie   = "Movie"
	TypeSeries  = "Series"
)

// User is a media server account as returned by GET /Users
type User struct {
	ID   string `json:"Id"`
	Name string `json:"Name"`
}

// Item is one library item as returned by GET /Users/{id}/Items/Latest.
// Fields vary by Type; absent fields decode to zero values.
type Item struct {
	ID                    string    `json:"Id"`
	ServerID              string    `json:"ServerId"`
	Name                  string    `json:"Name"`
	Type                  string    `json:"Type"`
	Overview              string    `json:"Overview"`
	ProductionYear        int       `json:"ProductionYear"`
	EndDate               string    `json:"EndDate"`
	SeriesID              string    `json:"SeriesId"`
	SeriesName            string    `json:"SeriesName"`
	SeriesPrimaryImageTag string    `json:"SeriesPrimaryImageTag"`
	ImageTags             ImageTags `json:"ImageTags"`
	UserData              UserData  `json:"UserData"`
}

// ImageTags holds cache-busting tags for the item's images
type ImageTags struct {
	Primary string `json:"Primary"`
}

// UserData holds per-user playback state for an item
type UserData struct {
	UnplayedItemCount int `json:"UnplayedItemCount"`
}
