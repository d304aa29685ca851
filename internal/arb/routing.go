// Package arb routes rating domains to the review board that owns them.
package arb

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed routing.yaml
var defaultRouting []byte

type routingFile struct {
	Default string            `yaml:"default"`
	Routes  map[string]string `yaml:"routes"`
}

// Table is a static domain -> ARB lookup. It is read-only after construction.
type Table struct {
	fallback string
	routes   map[string]string
}

// Default returns the table compiled into the binary.
func Default() (*Table, error) {
	return parse(defaultRouting)
}

// Load reads a YAML routing file. An empty path yields the default table.
func Load(path string) (*Table, error) {
	if path == "" {
		return Default()
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read arb routing file: %w", err)
	}
	return parse(raw)
}

func parse(raw []byte) (*Table, error) {
	var f routingFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse arb routing: %w", err)
	}
	if strings.TrimSpace(f.Default) == "" {
		return nil, fmt.Errorf("parse arb routing: default board is required")
	}
	t := &Table{fallback: f.Default, routes: make(map[string]string, len(f.Routes))}
	for d, board := range f.Routes {
		t.routes[normalize(d)] = board
	}
	return t, nil
}

// Resolve returns the board for a domain, or the fallback board.
func (t *Table) Resolve(domain string) string {
	if board, ok := t.routes[normalize(domain)]; ok {
		return board
	}
	return t.fallback
}

// Boards lists the distinct boards referenced by the table.
func (t *Table) Boards() []string {
	seen := map[string]bool{t.fallback: true}
	out := []string{t.fallback}
	for _, b := range t.routes {
		if !seen[b] {
			seen[b] = true
			out = append(out, b)
		}
	}
	return out
}

func normalize(domain string) string {
	return strings.ToLower(strings.TrimSpace(domain))
}
