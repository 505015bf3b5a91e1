package model

// Preference is an entry of the preference tag catalogue (e.g. "vegan", "wheelchair access").
type Preference struct {
	ID   int64  `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
}
