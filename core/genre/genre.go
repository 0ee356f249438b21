// Package genre maintains the genre forest and answers membership queries
// over it.
package genre

import (
	"context"
	"errors"
	"sort"
	"strings"

	"hastingtx/core/validate"
	"hastingtx/logger"
	"hastingtx/model"
	"hastingtx/repository"
)

// Service is the genre hierarchy resolver.
type Service struct {
	genres repository.GenreRepository
	// surfaceAncestors makes PopulatedGenres also list every ancestor of a
	// populated genre.
	surfaceAncestors bool
}

// NewService creates a genre service.
func NewService(genres repository.GenreRepository, surfaceAncestors bool) *Service {
	return &Service{genres: genres, surfaceAncestors: surfaceAncestors}
}

type createInput struct {
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description"`
	ParentName  string `json:"parent" validate:"max=100"`
}

// CreateGenre adds a genre. Names are unique case-insensitively. An empty
// parentName creates a root.
func (s *Service) CreateGenre(ctx context.Context, name, description, parentName string) (*model.Genre, error) {
	in := createInput{
		Name:        strings.TrimSpace(name),
		Description: strings.TrimSpace(description),
		ParentName:  strings.TrimSpace(parentName),
	}
	if err := validate.Struct(&in); err != nil {
		return nil, err
	}

	if _, err := s.genres.GetByName(ctx, in.Name); err == nil {
		return nil, &model.DuplicateError{Entity: "genre", Key: in.Name}
	} else if !errors.Is(err, model.ErrNotFound) {
		return nil, err
	}

	g := &model.Genre{Name: in.Name, Description: in.Description}
	if in.ParentName != "" {
		parent, err := s.genres.GetByName(ctx, in.ParentName)
		if err != nil {
			return nil, err
		}
		g.ParentID = &parent.ID
	}

	// A concurrent creator can still win the unique index; the repository
	// reports that as DuplicateError too.
	if err := s.genres.Create(ctx, g); err != nil {
		return nil, err
	}
	logger.Info("genre created", logger.String("name", g.Name), logger.Int64("id", g.ID))
	return g, nil
}

// SetParent moves genreID under parentID, or makes it a root when parentID
// is nil. Assignments that would close a loop fail with CycleError.
func (s *Service) SetParent(ctx context.Context, genreID int64, parentID *int64) error {
	if parentID != nil && *parentID == genreID {
		return &model.CycleError{GenreID: genreID, ParentID: *parentID}
	}
	return s.genres.SetParent(ctx, genreID, parentID, func(parents map[int64]*int64) error {
		if parentID == nil {
			return nil
		}
		return CheckCycle(parents, genreID, *parentID)
	})
}

// CheckCycle walks from parentID toward the root and fails if it meets
// genreID. The walk is bounded by the arena size, so a corrupt arena that
// already holds a loop cannot make it spin.
func CheckCycle(parents map[int64]*int64, genreID, parentID int64) error {
	if parentID == genreID {
		return &model.CycleError{GenreID: genreID, ParentID: parentID}
	}
	current := parentID
	for steps := 0; steps <= len(parents); steps++ {
		next, ok := parents[current]
		if !ok || next == nil {
			return nil
		}
		if *next == genreID {
			return &model.CycleError{GenreID: genreID, ParentID: parentID}
		}
		current = *next
	}
	// Ran out of steps without reaching a root: the existing chain loops.
	return &model.CycleError{GenreID: genreID, ParentID: parentID}
}

// Ancestors returns the chain from genreID's parent up to its root.
func (s *Service) Ancestors(ctx context.Context, genreID int64) ([]model.Genre, error) {
	all, err := s.genres.List(ctx)
	if err != nil {
		return nil, err
	}
	byID := make(map[int64]model.Genre, len(all))
	for _, g := range all {
		byID[g.ID] = g
	}
	g, ok := byID[genreID]
	if !ok {
		return nil, model.NewNotFound("genre", genreID)
	}

	var chain []model.Genre
	for steps := 0; g.ParentID != nil && steps < len(all); steps++ {
		parent, ok := byID[*g.ParentID]
		if !ok {
			break
		}
		chain = append(chain, parent)
		g = parent
	}
	return chain, nil
}

// DeleteGenre removes a genre, detaching its children and unlinking its
// songs.
func (s *Service) DeleteGenre(ctx context.Context, name string) error {
	g, err := s.genres.GetByName(ctx, name)
	if err != nil {
		return err
	}
	return s.genres.Delete(ctx, g.ID)
}

// List returns every genre with its direct song count and parent name,
// ordered by name.
func (s *Service) List(ctx context.Context) ([]model.GenreCount, error) {
	all, err := s.genres.List(ctx)
	if err != nil {
		return nil, err
	}
	counts, err := s.genres.DirectSongCounts(ctx)
	if err != nil {
		return nil, err
	}
	return annotate(all, counts, func(model.Genre) bool { return true }), nil
}

// PopulatedGenres returns the genres with at least one directly assigned
// song, each with that count, ordered by name. Songs in child genres do not
// make a parent populated. With ancestor surfacing enabled, every ancestor
// of a populated genre is listed as well with its own direct count.
func (s *Service) PopulatedGenres(ctx context.Context) ([]model.GenreCount, error) {
	all, err := s.genres.List(ctx)
	if err != nil {
		return nil, err
	}
	counts, err := s.genres.DirectSongCounts(ctx)
	if err != nil {
		return nil, err
	}

	include := make(map[int64]bool, len(counts))
	parents := make(map[int64]*int64, len(all))
	for _, g := range all {
		parents[g.ID] = g.ParentID
	}
	for id, n := range counts {
		if n == 0 {
			continue
		}
		include[id] = true
		if !s.surfaceAncestors {
			continue
		}
		next := parents[id]
		for steps := 0; next != nil && steps < len(all); steps++ {
			include[*next] = true
			next = parents[*next]
		}
	}

	return annotate(all, counts, func(g model.Genre) bool { return include[g.ID] }), nil
}

func annotate(all []model.Genre, counts map[int64]int64, keep func(model.Genre) bool) []model.GenreCount {
	names := make(map[int64]string, len(all))
	for _, g := range all {
		names[g.ID] = g.Name
	}

	out := make([]model.GenreCount, 0, len(all))
	for _, g := range all {
		if !keep(g) {
			continue
		}
		gc := model.GenreCount{Genre: g, SongCount: counts[g.ID]}
		if g.ParentID != nil {
			gc.ParentName = names[*g.ParentID]
		}
		out = append(out, gc)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].NameKey != out[j].NameKey {
			return out[i].NameKey < out[j].NameKey
		}
		return out[i].ID < out[j].ID
	})
	return out
}
