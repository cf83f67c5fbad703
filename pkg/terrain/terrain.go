// Package terrain answers height queries against the game map.
package terrain

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"os"

	json "github.com/goccy/go-json"
)

// OutOfBounds is the height reported for positions outside the map.
const OutOfBounds = 99

var (
	ErrBadDimensions = errors.New("terrain: bad dimensions")
	ErrHeightCount   = errors.New("terrain: height count does not match grid")
)

// Terrain is the read-only view of the map used by the simulation.
type Terrain interface {
	HeightAt(x, y float32) int
	Width() int
	Height() int
}

// Flat is a terrain with height 0 everywhere inside its bounds.
type Flat struct {
	W, H int
}

func (f Flat) Width() int  { return f.W }
func (f Flat) Height() int { return f.H }

func (f Flat) HeightAt(x, y float32) int {
	if x < 0 || y < 0 || x >= float32(f.W) || y >= float32(f.H) {
		return OutOfBounds
	}
	return 0
}

// HeightMap is a tile grid of heights.
type HeightMap struct {
	TileWidth  int   `json:"tile_width"`
	TileHeight int   `json:"tile_height"`
	Cols       int   `json:"cols"`
	Rows       int   `json:"rows"`
	Heights    []int `json:"heights"`
}

// ParseHeightMap decodes a JSON height map.
func ParseHeightMap(data []byte) (*HeightMap, error) {
	var m HeightMap
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("terrain: decode: %w", err)
	}
	if m.TileWidth <= 0 || m.TileHeight <= 0 || m.Cols <= 0 || m.Rows <= 0 {
		return nil, ErrBadDimensions
	}
	if len(m.Heights) != m.Cols*m.Rows {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrHeightCount, len(m.Heights), m.Cols*m.Rows)
	}
	return &m, nil
}

// LoadHeightMap reads a height map from disk.
func LoadHeightMap(path string) (*HeightMap, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseHeightMap(data)
}

func (m *HeightMap) Width() int  { return m.Cols * m.TileWidth }
func (m *HeightMap) Height() int { return m.Rows * m.TileHeight }

func (m *HeightMap) HeightAt(x, y float32) int {
	if x < 0 || y < 0 {
		return OutOfBounds
	}
	col := int(x) / m.TileWidth
	row := int(y) / m.TileHeight
	if col >= m.Cols || row >= m.Rows {
		return OutOfBounds
	}
	return m.Heights[row*m.Cols+col]
}

// RandomGroundPosition picks a random point at height 0. It gives up after a
// bounded number of attempts and returns the map centre.
func RandomGroundPosition(t Terrain, rng *rand.Rand) (float32, float32) {
	w, h := t.Width(), t.Height()
	if w > 0 && h > 0 {
		for range 1000 {
			x := float32(rng.IntN(w))
			y := float32(rng.IntN(h))
			if t.HeightAt(x, y) == 0 {
				return x, y
			}
		}
	}
	return float32(w) / 2, float32(h) / 2
}
