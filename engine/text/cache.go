package text

import (
	"context"
	"sync"

	"golang.org/x/image/font/opentype"
	"golang.org/x/sync/errgroup"
)

// AtlasCache holds one FontAtlas per pixel size for a single font. Get is for
// the render thread; Preload may build several sizes in parallel.
type AtlasCache struct {
	font *opentype.Font

	mu      sync.Mutex
	atlases map[int]*FontAtlas
	builds  int
}

func NewAtlasCache(ft *opentype.Font) *AtlasCache {
	return &AtlasCache{font: ft, atlases: map[int]*FontAtlas{}}
}

// Get returns the atlas for sizePx, building it on first request.
func (c *AtlasCache) Get(sizePx int) (*FontAtlas, error) {
	c.mu.Lock()
	a, ok := c.atlases[sizePx]
	c.mu.Unlock()
	if ok {
		return a, nil
	}
	a, err := BuildAtlas(c.font, sizePx)
	if err != nil {
		return nil, err
	}
	return c.store(a), nil
}

func (c *AtlasCache) store(a *FontAtlas) *FontAtlas {
	c.mu.Lock()
	defer c.mu.Unlock()
	if prev, ok := c.atlases[a.SizePx]; ok {
		return prev
	}
	c.atlases[a.SizePx] = a
	c.builds++
	return a
}

// Preload rasterizes the given sizes concurrently. Only CPU work happens
// here; textures are uploaded on first use from the render thread.
func (c *AtlasCache) Preload(ctx context.Context, sizes ...int) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for _, size := range sizes {
		c.mu.Lock()
		_, ok := c.atlases[size]
		c.mu.Unlock()
		if ok {
			continue
		}
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			a, err := BuildAtlas(c.font, size)
			if err != nil {
				return err
			}
			c.store(a)
			return nil
		})
	}
	return g.Wait()
}

// Len reports the number of cached sizes.
func (c *AtlasCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.atlases)
}

// Builds reports how many atlases were rasterized and kept.
func (c *AtlasCache) Builds() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.builds
}

// Dispose releases every atlas texture and empties the cache.
func (c *AtlasCache) Dispose() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, a := range c.atlases {
		a.Dispose()
	}
	c.atlases = map[int]*FontAtlas{}
}
