package preferences

import (
	"context"
	"encoding/json"
	"slices"
	"strconv"
	"sync"

	"mymanga/internal/domain"
	"mymanga/internal/store"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

const (
	favoritesKey = "favoriteManga"
	darkModeKey  = "darkMode"
)

// Service keeps the favorites list and the dark mode flag in a key-value store.
type Service struct {
	kv  store.KV
	log zerolog.Logger

	// serializes read-modify-write cycles
	mu sync.Mutex
}

func NewService(kv store.KV, log zerolog.Logger) *Service {
	return &Service{
		kv:  kv,
		log: log.With().Str("module", "preferences").Logger(),
	}
}

func (s *Service) Favorites(ctx context.Context) ([]domain.MangaSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.favoritesLocked(ctx)
}

func (s *Service) favoritesLocked(ctx context.Context) ([]domain.MangaSummary, error) {
	raw, ok, err := s.kv.Get(ctx, favoritesKey)
	if err != nil {
		return nil, err
	}

	favorites := []domain.MangaSummary{}
	if !ok {
		return favorites, nil
	}

	if err := json.Unmarshal(raw, &favorites); err != nil {
		s.log.Warn().Err(err).Msg("stored favorites are unreadable, starting over")
		return []domain.MangaSummary{}, nil
	}

	return favorites, nil
}

func (s *Service) IsFavorite(ctx context.Context, mangaID string) (bool, error) {
	favorites, err := s.Favorites(ctx)
	if err != nil {
		return false, err
	}

	return slices.ContainsFunc(favorites, func(m domain.MangaSummary) bool {
		return m.ID == mangaID
	}), nil
}

// AddFavorite appends manga unless a title with the same id is already stored.
func (s *Service) AddFavorite(ctx context.Context, manga domain.MangaSummary) ([]domain.MangaSummary, error) {
	if manga.ID == "" {
		return nil, errors.New("favorite needs an id")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	favorites, err := s.favoritesLocked(ctx)
	if err != nil {
		return nil, err
	}

	if slices.ContainsFunc(favorites, func(m domain.MangaSummary) bool { return m.ID == manga.ID }) {
		return favorites, nil
	}

	favorites = append(favorites, manga)
	return favorites, s.saveLocked(ctx, favorites)
}

func (s *Service) RemoveFavorite(ctx context.Context, mangaID string) ([]domain.MangaSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	favorites, err := s.favoritesLocked(ctx)
	if err != nil {
		return nil, err
	}

	favorites = slices.DeleteFunc(favorites, func(m domain.MangaSummary) bool {
		return m.ID == mangaID
	})
	return favorites, s.saveLocked(ctx, favorites)
}

func (s *Service) saveLocked(ctx context.Context, favorites []domain.MangaSummary) error {
	raw, err := json.Marshal(favorites)
	if err != nil {
		return errors.Wrap(err, "could not encode favorites")
	}

	return s.kv.Set(ctx, favoritesKey, raw)
}

// DarkMode reports the stored flag. It is off until set.
func (s *Service) DarkMode(ctx context.Context) (bool, error) {
	raw, ok, err := s.kv.Get(ctx, darkModeKey)
	if err != nil || !ok {
		return false, err
	}

	on, err := strconv.ParseBool(string(raw))
	if err != nil {
		return false, nil
	}

	return on, nil
}

func (s *Service) SetDarkMode(ctx context.Context, on bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.setDarkModeLocked(ctx, on)
}

func (s *Service) setDarkModeLocked(ctx context.Context, on bool) error {
	return s.kv.Set(ctx, darkModeKey, []byte(strconv.FormatBool(on)))
}

func (s *Service) ToggleDarkMode(ctx context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	on, err := s.DarkMode(ctx)
	if err != nil {
		return false, err
	}

	if err := s.setDarkModeLocked(ctx, !on); err != nil {
		return false, err
	}

	return !on, nil
}
