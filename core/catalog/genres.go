package catalog

import (
	"context"
	"strings"
	"time"

	"hastingtx/model"
)

// CreateGenre adds a genre under the optional parent called parentName.
func (c *Catalog) CreateGenre(ctx context.Context, name, description, parentName string) (g *model.Genre, err error) {
	defer observe("create_genre", time.Now(), &err)
	return c.genres.CreateGenre(ctx, name, description, parentName)
}

// SetParent moves genreID under parentID, or to the root when nil.
func (c *Catalog) SetParent(ctx context.Context, genreID int64, parentID *int64) (err error) {
	defer observe("set_genre_parent", time.Now(), &err)
	return c.genres.SetParent(ctx, genreID, parentID)
}

// SetParentByName is SetParent addressed by genre names. An empty
// parentName makes the genre a root.
func (c *Catalog) SetParentByName(ctx context.Context, name, parentName string) (err error) {
	defer observe("set_genre_parent", time.Now(), &err)

	g, err := c.repos.Genres.GetByName(ctx, name)
	if err != nil {
		return err
	}
	var parentID *int64
	if strings.TrimSpace(parentName) != "" {
		parent, err := c.repos.Genres.GetByName(ctx, parentName)
		if err != nil {
			return err
		}
		parentID = &parent.ID
	}
	return c.genres.SetParent(ctx, g.ID, parentID)
}

// DeleteGenre removes the genre called name.
func (c *Catalog) DeleteGenre(ctx context.Context, name string) (err error) {
	defer observe("delete_genre", time.Now(), &err)
	return c.genres.DeleteGenre(ctx, name)
}

// Genres lists every genre with its direct song count.
func (c *Catalog) Genres(ctx context.Context) (out []model.GenreCount, err error) {
	defer observe("list_genres", time.Now(), &err)
	return c.genres.List(ctx)
}

// PopulatedGenres lists the genres that directly hold songs.
func (c *Catalog) PopulatedGenres(ctx context.Context) (out []model.GenreCount, err error) {
	defer observe("populated_genres", time.Now(), &err)
	return c.genres.PopulatedGenres(ctx)
}

// GenreAncestors returns the chain above the genre called name, nearest
// first.
func (c *Catalog) GenreAncestors(ctx context.Context, name string) (chain []model.Genre, err error) {
	defer observe("genre_ancestors", time.Now(), &err)
	g, err := c.repos.Genres.GetByName(ctx, name)
	if err != nil {
		return nil, err
	}
	return c.genres.Ancestors(ctx, g.ID)
}
