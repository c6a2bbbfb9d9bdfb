// Package objmodel loads the textured tile models served as Wavefront OBJ
// files with one texture image per model.
package objmodel

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/gekko3d/tilescene/scene"
)

var ErrMalformedOBJ = errors.New("objmodel: malformed obj")

// Piece is one named object or group of an OBJ file, flattened to one
// vertex per face corner.
type Piece struct {
	Name     string
	Vertices []scene.Vertex
	Indices  []uint32
}

func (p *Piece) Empty() bool { return len(p.Indices) == 0 }

// ParseOBJ reads positions, texture coordinates, normals and polygonal
// faces. Faces with more than three corners are fan-triangulated.
func ParseOBJ(data []byte) ([]Piece, error) {
	var (
		positions []mgl32.Vec3
		uvs       []mgl32.Vec2
		normals   []mgl32.Vec3
		pieces    []Piece
		current   = Piece{Name: "default"}
	)

	flush := func() {
		if !current.Empty() {
			pieces = append(pieces, current)
		}
	}

	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 64*1024), 4*1024*1024)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || text[0] == '#' {
			continue
		}
		fields := strings.Fields(text)
		switch fields[0] {
		case "v":
			v, err := parseFloats(fields[1:], 3)
			if err != nil {
				return nil, fmt.Errorf("%w: line %d: %v", ErrMalformedOBJ, line, err)
			}
			positions = append(positions, mgl32.Vec3{v[0], v[1], v[2]})
		case "vt":
			v, err := parseFloats(fields[1:], 2)
			if err != nil {
				return nil, fmt.Errorf("%w: line %d: %v", ErrMalformedOBJ, line, err)
			}
			uvs = append(uvs, mgl32.Vec2{v[0], v[1]})
		case "vn":
			v, err := parseFloats(fields[1:], 3)
			if err != nil {
				return nil, fmt.Errorf("%w: line %d: %v", ErrMalformedOBJ, line, err)
			}
			normals = append(normals, mgl32.Vec3{v[0], v[1], v[2]})
		case "o", "g":
			flush()
			name := "default"
			if len(fields) > 1 {
				name = strings.Join(fields[1:], " ")
			}
			current = Piece{Name: name}
		case "f":
			if len(fields) < 4 {
				return nil, fmt.Errorf("%w: line %d: face with %d corners", ErrMalformedOBJ, line, len(fields)-1)
			}
			corners := make([]scene.Vertex, 0, len(fields)-1)
			for _, ref := range fields[1:] {
				v, err := resolveCorner(ref, positions, uvs, normals)
				if err != nil {
					return nil, fmt.Errorf("%w: line %d: %v", ErrMalformedOBJ, line, err)
				}
				corners = append(corners, v)
			}
			for i := 1; i+1 < len(corners); i++ {
				base := uint32(len(current.Vertices))
				current.Vertices = append(current.Vertices, corners[0], corners[i], corners[i+1])
				current.Indices = append(current.Indices, base, base+1, base+2)
			}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("objmodel: read: %w", err)
	}
	flush()
	return pieces, nil
}

func parseFloats(fields []string, n int) ([]float32, error) {
	if len(fields) < n {
		return nil, fmt.Errorf("expected %d components, got %d", n, len(fields))
	}
	out := make([]float32, n)
	for i := 0; i < n; i++ {
		f, err := strconv.ParseFloat(fields[i], 32)
		if err != nil {
			return nil, err
		}
		out[i] = float32(f)
	}
	return out, nil
}

// resolveIndex converts a 1-based (or negative, relative) OBJ index.
func resolveIndex(s string, n int) (int, error) {
	i, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	if i < 0 {
		i = n + i
	} else {
		i--
	}
	if i < 0 || i >= n {
		return 0, fmt.Errorf("index %s out of range (%d)", s, n)
	}
	return i, nil
}

func resolveCorner(ref string, positions []mgl32.Vec3, uvs []mgl32.Vec2, normals []mgl32.Vec3) (scene.Vertex, error) {
	parts := strings.Split(ref, "/")
	var v scene.Vertex
	pi, err := resolveIndex(parts[0], len(positions))
	if err != nil {
		return v, err
	}
	v.Position = positions[pi]
	if len(parts) > 1 && parts[1] != "" {
		ti, err := resolveIndex(parts[1], len(uvs))
		if err != nil {
			return v, err
		}
		v.UV = uvs[ti]
	}
	if len(parts) > 2 && parts[2] != "" {
		ni, err := resolveIndex(parts[2], len(normals))
		if err != nil {
			return v, err
		}
		v.Normal = normals[ni]
	}
	return v, nil
}
