/*Package immich picks photos from an Immich server and prepares them
for the screen's portrait panel.  It is glue around the driver, not part
of the device protocol: the output is an ordinary 480x1920 PNG on disk.
*/
package immich

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image"
	"io"
	"math/rand"
	"net/http"
	"time"

	"github.com/cenkalti/backoff"

	_ "image/jpeg"
	_ "image/png"
)

// Panel geometry the prepared output targets.
const (
	OutWidth  = 480
	OutHeight = 1920
)

// Client talks to one Immich server.
type Client struct {
	// BaseURL is the server root, e.g. https://photos.example.com/api
	BaseURL string

	// APIKey is sent as the x-api-key header
	APIKey string

	// HTTP overrides the default client when set
	HTTP *http.Client
}

// Asset is the subset of an Immich asset the picker needs.
type Asset struct {
	ID     string   `json:"id"`
	Type   string   `json:"type"`
	People []Person `json:"people"`
}

// Person carries face metadata for one recognized person in an asset.
type Person struct {
	ID    string `json:"id"`
	Faces []Face `json:"faces"`
}

// Face is a detected face bounding box in absolute pixels of the
// original image.
type Face struct {
	X1          int `json:"boundingBoxX1"`
	Y1          int `json:"boundingBoxY1"`
	X2          int `json:"boundingBoxX2"`
	Y2          int `json:"boundingBoxY2"`
	ImageWidth  int `json:"imageWidth"`
	ImageHeight int `json:"imageHeight"`
}

func (c *Client) httpClient() *http.Client {
	if c.HTTP != nil {
		return c.HTTP
	}
	return &http.Client{Timeout: 30 * time.Second}
}

// get fetches one URL with the API key, retrying transient failures on
// a short exponential schedule.
func (c *Client) get(url string) ([]byte, error) {
	var body []byte
	op := func() error {
		req, err := http.NewRequest(http.MethodGet, url, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("x-api-key", c.APIKey)
		resp, err := c.httpClient().Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		if resp.StatusCode >= 500 {
			return fmt.Errorf("immich: %s: %s", url, resp.Status)
		}
		if resp.StatusCode != http.StatusOK {
			return backoff.Permanent(fmt.Errorf("immich: %s: %s", url, resp.Status))
		}
		body, err = io.ReadAll(resp.Body)
		return err
	}
	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = 15 * time.Second
	if err := backoff.Retry(op, bo); err != nil {
		return nil, err
	}
	return body, nil
}

// PersonAssets lists the image assets featuring a person.
func (c *Client) PersonAssets(personID string) ([]Asset, error) {
	body, err := c.get(fmt.Sprintf("%s/people/%s/assets", c.BaseURL, personID))
	if err != nil {
		return nil, err
	}
	var assets []Asset
	if err := json.Unmarshal(body, &assets); err != nil {
		return nil, fmt.Errorf("immich: decoding asset list: %w", err)
	}
	out := assets[:0]
	for _, a := range assets {
		if a.Type == "" || a.Type == "IMAGE" {
			out = append(out, a)
		}
	}
	return out, nil
}

// RandomPersonAsset picks one image asset of a person at random.
func (c *Client) RandomPersonAsset(personID string) (Asset, error) {
	assets, err := c.PersonAssets(personID)
	if err != nil {
		return Asset{}, err
	}
	if len(assets) == 0 {
		return Asset{}, fmt.Errorf("immich: person %s has no image assets", personID)
	}
	return assets[rand.Intn(len(assets))], nil
}

// AssetDetail fetches one asset with its face metadata.
func (c *Client) AssetDetail(id string) (Asset, error) {
	body, err := c.get(fmt.Sprintf("%s/assets/%s", c.BaseURL, id))
	if err != nil {
		return Asset{}, err
	}
	var a Asset
	if err := json.Unmarshal(body, &a); err != nil {
		return Asset{}, fmt.Errorf("immich: decoding asset: %w", err)
	}
	return a, nil
}

// Download fetches and decodes the full-resolution image for an asset.
func (c *Client) Download(id string) (image.Image, error) {
	body, err := c.get(fmt.Sprintf("%s/assets/%s/original", c.BaseURL, id))
	if err != nil {
		return nil, err
	}
	img, _, err := image.Decode(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("immich: decoding image for asset %s: %w", id, err)
	}
	return img, nil
}

// FaceCenter returns the face center of a person in an asset, if the
// server reported one.
func FaceCenter(a Asset, personID string) (image.Point, bool) {
	for _, p := range a.People {
		if p.ID != personID || len(p.Faces) == 0 {
			continue
		}
		f := p.Faces[0]
		return image.Pt((f.X1+f.X2)/2, (f.Y1+f.Y2)/2), true
	}
	return image.Point{}, false
}

