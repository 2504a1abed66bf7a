package models

// Entity is the join-key identity shared by the features computed for it.
type Entity struct {
	Name     string   `json:"name"`
	JoinKeys []string `json:"join_keys"`
}

// EntityRow is an entity row as stored, before its JSON columns are decoded.
type EntityRow struct {
	Name     string
	JoinKeys string
}
