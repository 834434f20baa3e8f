package rooms

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/dmitrijs2005/roomkeeper/internal/common"
	"github.com/dmitrijs2005/roomkeeper/internal/filex"
	"github.com/dmitrijs2005/roomkeeper/internal/server/models"
)

const roomsFileName = "rooms.json"

// FileRepository stores all rooms as one JSON array in <dataDir>/rooms.json.
// The file is re-read on every call so edits made while the server is down
// are picked up; writes replace it atomically.
type FileRepository struct {
	mu   sync.Mutex
	path string
}

// NewFileRepository ensures dataDir exists. A missing rooms file is treated
// as an empty store.
func NewFileRepository(dataDir string) (*FileRepository, error) {
	dir, err := filex.EnsureDir(dataDir)
	if err != nil {
		return nil, fmt.Errorf("file store: %w", err)
	}
	return &FileRepository{path: filepath.Join(dir, roomsFileName)}, nil
}

func (r *FileRepository) load() ([]*models.Room, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []*models.Room{}, nil
		}
		return nil, fmt.Errorf("file store: %w", err)
	}

	var rooms []*models.Room
	if err := json.Unmarshal(data, &rooms); err != nil {
		return nil, fmt.Errorf("file store: decode %s: %w", r.path, err)
	}
	return rooms, nil
}

func (r *FileRepository) save(rooms []*models.Room) error {
	data, err := json.MarshalIndent(rooms, "", "  ")
	if err != nil {
		return fmt.Errorf("file store: encode: %w", err)
	}
	if err := filex.WriteFileAtomic(r.path, data, 0o600); err != nil {
		return fmt.Errorf("file store: %w", err)
	}
	return nil
}

func indexOf(rooms []*models.Room, id string) int {
	for i, room := range rooms {
		if room.ID == id {
			return i
		}
	}
	return -1
}

func (r *FileRepository) Create(_ context.Context, room *models.Room) (*models.Room, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rooms, err := r.load()
	if err != nil {
		return nil, err
	}
	if indexOf(rooms, room.ID) >= 0 {
		return nil, common.ErrorAlreadyExists
	}
	if err := r.save(append(rooms, room)); err != nil {
		return nil, err
	}
	return room.Clone(), nil
}

func (r *FileRepository) Get(_ context.Context, id string) (*models.Room, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rooms, err := r.load()
	if err != nil {
		return nil, err
	}
	i := indexOf(rooms, id)
	if i < 0 {
		return nil, common.ErrorNotFound
	}
	return rooms[i], nil
}

func (r *FileRepository) List(_ context.Context) ([]*models.Room, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.load()
}

func (r *FileRepository) Update(_ context.Context, id string, patch models.RoomPatch) (*models.Room, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rooms, err := r.load()
	if err != nil {
		return nil, err
	}
	i := indexOf(rooms, id)
	if i < 0 {
		return nil, common.ErrorNotFound
	}
	patch.Apply(rooms[i])
	if err := r.save(rooms); err != nil {
		return nil, err
	}
	return rooms[i].Clone(), nil
}

func (r *FileRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rooms, err := r.load()
	if err != nil {
		return err
	}
	i := indexOf(rooms, id)
	if i < 0 {
		return common.ErrorNotFound
	}
	return r.save(append(rooms[:i], rooms[i+1:]...))
}
