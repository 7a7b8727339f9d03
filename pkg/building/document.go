package building

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// Document is the on-disk map format: floors, walkway vertices and edges,
// and rooms keyed by room number.
type Document struct {
	Floors   []FloorInfo           `json:"floors"`
	Vertices []VertexRecord        `json:"vertices"`
	Edges    [][2]string           `json:"edges"`
	Rooms    map[string]RoomRecord `json:"rooms"`
}

// FloorInfo names a floor and its background image.
type FloorInfo struct {
	Number string `json:"number"`
	Image  string `json:"image,omitempty"`
}

// VertexRecord is one walkway vertex as stored in a Document.
type VertexRecord struct {
	ID       string     `json:"id"`
	Floor    string     `json:"floor"`
	Location [2]float64 `json:"location"`
	Tags     []string   `json:"tags,omitempty"`
}

// RoomRecord is one room as stored in a Document. Vertices lists the ids of
// the room's entrance vertices.
type RoomRecord struct {
	Vertices    []string     `json:"vertices"`
	Center      *[2]float64  `json:"center,omitempty"`
	Outline     [][2]float64 `json:"outline,omitempty"`
	Names       []string     `json:"names,omitempty"`
	Tags        []string     `json:"tags,omitempty"`
	Description string       `json:"description,omitempty"`
	Floor       string       `json:"floor,omitempty"`
}

// LoadDocument decodes a map document from r.
func LoadDocument(r io.Reader) (*Document, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode map document: %w", err)
	}
	return &doc, nil
}

// ReadDocumentFile loads a map document from a file.
func ReadDocumentFile(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open map document: %w", err)
	}
	defer f.Close()
	return LoadDocument(f)
}

// WriteDocument encodes doc to w as indented JSON.
func WriteDocument(w io.Writer, doc *Document) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode map document: %w", err)
	}
	return nil
}

// WriteDocumentFile writes doc to path, replacing any existing file.
func WriteDocumentFile(path string, doc *Document) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create map document: %w", err)
	}
	if err := WriteDocument(f, doc); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
