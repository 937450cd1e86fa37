package templates

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing/fstest"
)

// pointsJSON renders n landmarks whose coordinates are shifted by offset.
func pointsJSON(n int, offset float64) string {
	points := make([]string, n)
	for i := range points {
		points[i] = fmt.Sprintf(`{"x":%g,"y":%g,"z":%g}`, offset+float64(i)*0.01, offset+float64(i)*0.02, float64(i)*0.001)
	}
	return "[" + strings.Join(points, ",") + "]"
}

// staticJSON renders a triple-nested static template.
func staticJSON(offset float64) string {
	return "[[" + pointsJSON(21, offset) + "]]"
}

// dynamicJSON renders a frame list of n frames; wrapped frames use the
// [[points]] form.
func dynamicJSON(n int, wrapped bool) string {
	frames := make([]string, n)
	for i := range frames {
		frames[i] = pointsJSON(21, float64(i)*0.05)
		if wrapped {
			frames[i] = "[" + frames[i] + "]"
		}
	}
	return "[" + strings.Join(frames, ",") + "]"
}

func file(content string) *fstest.MapFile {
	return &fstest.MapFile{Data: []byte(content)}
}

// countingSource records how often each file is opened.
type countingSource struct {
	Source

	mu        sync.Mutex
	opens     map[string]int
	manifests int
}

func newCountingSource(src Source) *countingSource {
	return &countingSource{Source: src, opens: map[string]int{}}
}

func (c *countingSource) Manifest(ctx context.Context) (Manifest, error) {
	c.mu.Lock()
	c.manifests++
	c.mu.Unlock()
	return c.Source.Manifest(ctx)
}

func (c *countingSource) Open(ctx context.Context, symbol, name string) ([]byte, error) {
	c.mu.Lock()
	c.opens[symbol+"/"+name]++
	c.mu.Unlock()
	return c.Source.Open(ctx, symbol, name)
}

func (c *countingSource) openCount(key string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.opens[key]
}

func (c *countingSource) manifestCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.manifests
}

// gatedSource blocks the first Open of one file until release is closed.
type gatedSource struct {
	Source

	key     string
	once    sync.Once
	reached chan struct{}
	release chan struct{}
}

func newGatedSource(src Source, key string) *gatedSource {
	return &gatedSource{
		Source:  src,
		key:     key,
		reached: make(chan struct{}),
		release: make(chan struct{}),
	}
}

func (g *gatedSource) Open(ctx context.Context, symbol, name string) ([]byte, error) {
	if symbol+"/"+name == g.key {
		first := false
		g.once.Do(func() { first = true })
		if first {
			close(g.reached)
			<-g.release
		}
	}
	return g.Source.Open(ctx, symbol, name)
}
