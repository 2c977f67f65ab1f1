package plant

import "time"

// Plant is one entry in a user's collection.
type Plant struct {
	ID             string    `json:"id"`
	UserID         string    `json:"user_id"`
	CommonName     string    `json:"common_name"`
	ScientificName string    `json:"scientific_name"`
	Location       string    `json:"location"`
	LocationLat    *float64  `json:"location_lat,omitempty"`
	LocationLng    *float64  `json:"location_lng,omitempty"`
	ImageURL       string    `json:"image_url"`
	Edible         bool      `json:"edible"`
	Poisonous      bool      `json:"poisonous"`
	Medicinal      bool      `json:"medicinal"`
	Description    string    `json:"description,omitempty"`
	DateFound      time.Time `json:"date_found"`
}

// Identification is the shaped top suggestion from the recognition API.
type Identification struct {
	CommonName     string   `json:"common_name"`
	ScientificName string   `json:"scientific_name"`
	Probability    float64  `json:"probability"`
	Description    string   `json:"description"`
	Edible         bool     `json:"edible"`
	SimilarImages  []string `json:"similar_images,omitempty"`
}
