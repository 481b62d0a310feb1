package atlas

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Faultbox/dungeonview/internal/engine/texture"
	"github.com/Faultbox/dungeonview/internal/game/world"
)

// Request asks the texture service for an atlas covering a set of cell types.
type Request struct {
	GeneratorID      string           `json:"generator_id"`
	ThemeDescription string           `json:"theme_description"`
	CellTypes        []world.CellType `json:"cell_types"`
	AtlasSize        int              `json:"atlas_size"`
	GridSize         int              `json:"grid_size"`
	UseAI            bool             `json:"use_ai"`
}

// Response is a generated atlas ready for upload.
type Response struct {
	AtlasID string
	Image   image.Image
	Cells   map[string]UVRect
}

// Service generates texture atlases. Implementations must honor ctx.
type Service interface {
	Generate(ctx context.Context, req Request) (*Response, error)
}

// HTTPService talks to the game server's texture API.
type HTTPService struct {
	baseURL string
	client  *http.Client
}

// NewHTTPService creates a client for baseURL, e.g. "http://127.0.0.1:8000".
func NewHTTPService(baseURL string, timeout time.Duration) *HTTPService {
	return &HTTPService{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

type generateResponse struct {
	AtlasID string `json:"atlas_id"`
}

type atlasInfo struct {
	AtlasID string            `json:"atlas_id"`
	Cells   map[string]UVRect `json:"cells"`
}

// Generate creates the atlas, then fetches its UV table and image.
func (s *HTTPService) Generate(ctx context.Context, req Request) (*Response, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encoding atlas request: %w", err)
	}

	var gen generateResponse
	if err := s.do(ctx, http.MethodPost, "/api/textures/generate", bytes.NewReader(body), &gen); err != nil {
		return nil, fmt.Errorf("generating atlas: %w", err)
	}
	if gen.AtlasID == "" {
		return nil, fmt.Errorf("generating atlas: empty atlas id")
	}

	id := url.PathEscape(gen.AtlasID)

	var info atlasInfo
	if err := s.do(ctx, http.MethodGet, "/api/textures/"+id, nil, &info); err != nil {
		return nil, fmt.Errorf("loading atlas %s metadata: %w", gen.AtlasID, err)
	}

	data, err := s.fetch(ctx, http.MethodGet, "/api/textures/"+id+"/image", nil)
	if err != nil {
		return nil, fmt.Errorf("loading atlas %s image: %w", gen.AtlasID, err)
	}
	img, err := texture.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("loading atlas %s image: %w", gen.AtlasID, err)
	}

	return &Response{AtlasID: gen.AtlasID, Image: img, Cells: info.Cells}, nil
}

func (s *HTTPService) do(ctx context.Context, method, path string, body io.Reader, out any) error {
	data, err := s.fetch(ctx, method, path, body)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decoding %s: %w", path, err)
	}
	return nil
}

func (s *HTTPService) fetch(ctx context.Context, method, path string, body io.Reader) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%s %s: status %d", method, path, resp.StatusCode)
	}
	return data, nil
}
