// Package world holds the tile-world snapshot model pushed by the game server,
// the grid layout, and the movement intents sent back.
package world

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrMalformedSnapshot is wrapped by every validation failure.
var ErrMalformedSnapshot = errors.New("malformed snapshot")

// GridCoord is a cell position. X grows east, Y grows south.
type GridCoord struct {
	X, Y int
}

// Step returns the neighbouring cell in direction d.
func (g GridCoord) Step(d Direction) GridCoord {
	dx, dy := d.Delta()
	return GridCoord{X: g.X + dx, Y: g.Y + dy}
}

func (g GridCoord) String() string {
	return fmt.Sprintf("(%d,%d)", g.X, g.Y)
}

// CellType describes one terrain cell.
type CellType struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	MapColor string `json:"map_color"`
	Icon     string `json:"font_awesome_icon"`
	Category string `json:"category,omitempty"`
}

// Key returns the atlas lookup key for the cell.
func (c CellType) Key() string {
	if c.ID != "" {
		return c.ID
	}
	return c.Name
}

// Terrain returns the lowercase terrain category used for elevation.
func (c CellType) Terrain() string {
	if c.Category != "" {
		return strings.ToLower(c.Category)
	}
	return strings.ToLower(c.Name)
}

// Enemy is an enemy placed on the map.
type Enemy struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Icon     string `json:"font_awesome_icon"`
	X        int    `json:"x"`
	Y        int    `json:"y"`
	Defeated bool   `json:"is_defeated"`
}

// Pos returns the enemy cell.
func (e Enemy) Pos() GridCoord { return GridCoord{X: e.X, Y: e.Y} }

// Item is an item placed on the map.
type Item struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Icon      string `json:"font_awesome_icon"`
	X         int    `json:"x"`
	Y         int    `json:"y"`
	Collected bool   `json:"is_collected"`
}

// Pos returns the item cell.
func (i Item) Pos() GridCoord { return GridCoord{X: i.X, Y: i.Y} }

// Snapshot is one full world state. Cells and Explored are indexed [y][x].
type Snapshot struct {
	Width    int
	Height   int
	Cells    [][]CellType
	Explored [][]bool
	Player   GridCoord
	Enemies  []Enemy
	Items    []Item
	InCombat bool
	GameOver bool

	// Theme identity for the texture atlas.
	GeneratorID      string
	ThemeDescription string
	Title            string
}

type snapshotJSON struct {
	Width            int          `json:"map_width"`
	Height           int          `json:"map_height"`
	Cells            [][]CellType `json:"cell_types"`
	Explored         [][]bool     `json:"explored"`
	Player           []int        `json:"player_pos"`
	Enemies          []Enemy      `json:"enemies"`
	ItemPlacements   []Item       `json:"item_placements"`
	Items            []Item       `json:"items"`
	InCombat         bool         `json:"in_combat"`
	GameOver         bool         `json:"game_over"`
	GeneratorID      string       `json:"generator_id"`
	ThemeDescription string       `json:"theme_description"`
	Title            string       `json:"game_title"`
}

// UnmarshalJSON decodes the server wire format. Dimensions missing from the
// payload are taken from the cell grid.
func (s *Snapshot) UnmarshalJSON(data []byte) error {
	var raw snapshotJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*s = Snapshot{
		Width:            raw.Width,
		Height:           raw.Height,
		Cells:            raw.Cells,
		Explored:         raw.Explored,
		Enemies:          raw.Enemies,
		Items:            raw.ItemPlacements,
		InCombat:         raw.InCombat,
		GameOver:         raw.GameOver,
		GeneratorID:      raw.GeneratorID,
		ThemeDescription: raw.ThemeDescription,
		Title:            raw.Title,
	}
	if s.Items == nil {
		s.Items = raw.Items
	}
	if len(raw.Player) == 2 {
		s.Player = GridCoord{X: raw.Player[0], Y: raw.Player[1]}
	} else if raw.Player != nil {
		return fmt.Errorf("player_pos: want [x, y], got %d values", len(raw.Player))
	}
	if s.Height == 0 {
		s.Height = len(s.Cells)
	}
	if s.Width == 0 && len(s.Cells) > 0 {
		s.Width = len(s.Cells[0])
	}
	return nil
}

// MarshalJSON encodes the snapshot in the server wire format.
func (s Snapshot) MarshalJSON() ([]byte, error) {
	return json.Marshal(snapshotJSON{
		Width:            s.Width,
		Height:           s.Height,
		Cells:            s.Cells,
		Explored:         s.Explored,
		Player:           []int{s.Player.X, s.Player.Y},
		Enemies:          s.Enemies,
		ItemPlacements:   s.Items,
		InCombat:         s.InCombat,
		GameOver:         s.GameOver,
		GeneratorID:      s.GeneratorID,
		ThemeDescription: s.ThemeDescription,
		Title:            s.Title,
	})
}

// Decode parses and validates a snapshot.
func Decode(data []byte) (*Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedSnapshot, err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks that the grids are rectangular and agree with each other.
func (s *Snapshot) Validate() error {
	if s.Width <= 0 || s.Height <= 0 {
		return fmt.Errorf("%w: size %dx%d", ErrMalformedSnapshot, s.Width, s.Height)
	}
	if len(s.Cells) != s.Height {
		return fmt.Errorf("%w: %d cell rows, want %d", ErrMalformedSnapshot, len(s.Cells), s.Height)
	}
	if len(s.Explored) != s.Height {
		return fmt.Errorf("%w: %d explored rows, want %d", ErrMalformedSnapshot, len(s.Explored), s.Height)
	}
	for y := 0; y < s.Height; y++ {
		if len(s.Cells[y]) != s.Width {
			return fmt.Errorf("%w: cell row %d has %d cells, want %d", ErrMalformedSnapshot, y, len(s.Cells[y]), s.Width)
		}
		if len(s.Explored[y]) != s.Width {
			return fmt.Errorf("%w: explored row %d has %d cells, want %d", ErrMalformedSnapshot, y, len(s.Explored[y]), s.Width)
		}
	}
	if !s.InBounds(s.Player) {
		return fmt.Errorf("%w: player %v outside %dx%d", ErrMalformedSnapshot, s.Player, s.Width, s.Height)
	}
	return nil
}

// InBounds reports whether g is on the map.
func (s *Snapshot) InBounds(g GridCoord) bool {
	return g.X >= 0 && g.Y >= 0 && g.X < s.Width && g.Y < s.Height
}

// Cell returns the cell at g.
func (s *Snapshot) Cell(g GridCoord) (CellType, bool) {
	if !s.InBounds(g) {
		return CellType{}, false
	}
	return s.Cells[g.Y][g.X], true
}

// IsExplored reports whether g has been explored.
func (s *Snapshot) IsExplored(g GridCoord) bool {
	return s.InBounds(g) && s.Explored[g.Y][g.X]
}

// CanMove reports whether the player may step in direction d: the target
// must stay on the map and the player must not be in combat.
func (s *Snapshot) CanMove(d Direction) bool {
	if s.InCombat || !d.Valid() {
		return false
	}
	return s.InBounds(s.Player.Step(d))
}
