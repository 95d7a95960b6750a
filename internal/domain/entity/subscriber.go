package entity

// Subscriber is the normalized read model of an upstream account. It is
// fetched fresh for every decision and never cached.
type Subscriber struct {
	Username    string `json:"username"`
	UserID      string `json:"user_id"`
	Expire      string `json:"expire,omitempty"`
	Enabled     bool   `json:"enabled"`
	PackageID   string `json:"package_id,omitempty"`
	BouquetName string `json:"bouquet_name,omitempty"`
}

// Bouquet is a single catalog entry from the upstream panel
type Bouquet struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}
