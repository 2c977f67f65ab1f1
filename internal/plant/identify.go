package plant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ErrNotConfigured is surfaced when the recognition API key is missing.
var ErrNotConfigured = errors.New("plant identification service is not configured")

var ErrNoMatch = errors.New("no plant match found")

// Identifier calls the Plant.id recognition API.
type Identifier struct {
	apiKey string
	apiURL string
	client *http.Client
}

func NewIdentifier(apiKey, apiURL string) *Identifier {
	return &Identifier{
		apiKey: apiKey,
		apiURL: apiURL,
		client: &http.Client{Timeout: 15 * time.Second},
	}
}

type identifyRequest struct {
	Images        []string `json:"images"`
	Modifiers     []string `json:"modifiers"`
	PlantLanguage string   `json:"plant_language"`
	PlantDetails  []string `json:"plant_details"`
}

type identifyResponse struct {
	Suggestions []struct {
		PlantName    string  `json:"plant_name"`
		Probability  float64 `json:"probability"`
		PlantDetails struct {
			CommonNames     []string `json:"common_names"`
			WikiDescription struct {
				Value string `json:"value"`
			} `json:"wiki_description"`
			EdibleParts []string `json:"edible_parts"`
		} `json:"plant_details"`
		SimilarImages []struct {
			URL string `json:"url"`
		} `json:"similar_images"`
	} `json:"suggestions"`
}

// Identify submits a base64-encoded image and shapes the top suggestion.
func (i *Identifier) Identify(ctx context.Context, imageBase64 string) (Identification, error) {
	if i.apiKey == "" {
		return Identification{}, ErrNotConfigured
	}

	payload, err := json.Marshal(identifyRequest{
		Images:        []string{imageBase64},
		Modifiers:     []string{"crops_fast", "similar_images"},
		PlantLanguage: "en",
		PlantDetails: []string{
			"common_names", "url", "name_authority", "wiki_description",
			"taxonomy", "synonyms", "edible_parts", "watering", "propagation_methods",
		},
	})
	if err != nil {
		return Identification{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, i.apiURL, bytes.NewReader(payload))
	if err != nil {
		return Identification{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Api-Key", i.apiKey)

	resp, err := i.client.Do(req)
	if err != nil {
		return Identification{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Identification{}, fmt.Errorf("failed to identify plant: %s", resp.Status)
	}

	var decoded identifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return Identification{}, err
	}
	if len(decoded.Suggestions) == 0 {
		return Identification{}, ErrNoMatch
	}

	top := decoded.Suggestions[0]
	out := Identification{
		CommonName:     top.PlantName,
		ScientificName: top.PlantName,
		Probability:    top.Probability,
		Description:    top.PlantDetails.WikiDescription.Value,
		Edible:         len(top.PlantDetails.EdibleParts) > 0,
	}
	if len(top.PlantDetails.CommonNames) > 0 {
		out.CommonName = top.PlantDetails.CommonNames[0]
	}
	for _, img := range top.SimilarImages {
		out.SimilarImages = append(out.SimilarImages, img.URL)
	}
	return out, nil
}
