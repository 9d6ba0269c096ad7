package toml

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	toml "github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"

	"github.com/mwdvs/coldwatch/internal/domain"
	"github.com/mwdvs/coldwatch/internal/ports"
)

const (
	configName        = "config"
	configType        = "toml"
	inventoryPathKey  = "inventory.path"
	inventoryFileMode = 0o600
	inventoryDirMode  = 0o700
	configDir         = ".coldwatch"
	inventoryFile     = "inventory.toml"
	tempFilePattern   = ".inventory-*.toml.tmp"
)

// Repository persists the inventory document as a TOML file. The path is
// resolved through viper so a deployment can relocate the file via
// ~/.coldwatch/config.toml without touching the code.
type Repository struct {
	inventoryPath string
	mu            *sync.RWMutex
}

var (
	lockRegistryMu sync.Mutex
	pathLockMap    = map[string]*sync.RWMutex{}
)

var _ ports.InventoryRepository = (*Repository)(nil)

func NewRepository(cfg *viper.Viper) (*Repository, error) {
	if cfg == nil {
		cfg = viper.New()
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("resolve home directory: %w", err)
	}

	defaultPath := filepath.Join(homeDir, configDir, inventoryFile)

	cfg.SetConfigName(configName)
	cfg.SetConfigType(configType)
	cfg.AddConfigPath(filepath.Join(homeDir, configDir))
	cfg.SetDefault(inventoryPathKey, defaultPath)

	err = cfg.ReadInConfig()
	if err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configNotFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	inventoryPath := cfg.GetString(inventoryPathKey)
	if inventoryPath == "" {
		return nil, errors.New("inventory path is empty")
	}
	inventoryPath, err = normalizeInventoryPath(inventoryPath)
	if err != nil {
		return nil, err
	}

	return &Repository{inventoryPath: inventoryPath, mu: lockForPath(inventoryPath)}, nil
}

// Path returns the resolved inventory file location.
func (r *Repository) Path() string {
	return r.inventoryPath
}

// Load reads and validates the inventory document. A missing file surfaces
// as a wrapped os.ErrNotExist; malformed or incomplete documents wrap
// domain.ErrSchemaInvalid naming the offending key.
func (r *Repository) Load(ctx context.Context) (domain.Inventory, error) {
	if err := ctx.Err(); err != nil {
		return domain.Inventory{}, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	file, err := r.readSchema()
	if err != nil {
		return domain.Inventory{}, err
	}

	return fromSchema(file), nil
}

// Save writes the inventory atomically: encode to a temp file in the target
// directory, then rename over the previous document.
func (r *Repository) Save(ctx context.Context, inv domain.Inventory) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	return r.writeSchema(toSchema(inv))
}

func (r *Repository) readSchema() (fileSchema, error) {
	data, err := os.ReadFile(r.inventoryPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fileSchema{}, fmt.Errorf("inventory file %s not found (run `cw inventory init` first): %w", r.inventoryPath, err)
		}
		return fileSchema{}, fmt.Errorf("read inventory file: %w", err)
	}

	var file fileSchema
	if err := toml.Unmarshal(data, &file); err != nil {
		return fileSchema{}, fmt.Errorf("%w: decode inventory file: %v", domain.ErrSchemaInvalid, err)
	}
	if err := file.validateVersion(); err != nil {
		return fileSchema{}, err
	}
	if err := file.validate(); err != nil {
		return fileSchema{}, err
	}
	file.applyDefaults()

	return file, nil
}

func (r *Repository) writeSchema(file fileSchema) error {
	file.applyDefaults()
	if err := file.validate(); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(r.inventoryPath), inventoryDirMode); err != nil {
		return fmt.Errorf("create inventory directory: %w", err)
	}

	data, err := toml.Marshal(file)
	if err != nil {
		return fmt.Errorf("encode inventory file: %w", err)
	}

	tempFile, err := os.CreateTemp(filepath.Dir(r.inventoryPath), tempFilePattern)
	if err != nil {
		return fmt.Errorf("create temp inventory file: %w", err)
	}

	tempName := tempFile.Name()
	cleanup := true
	defer func() {
		if cleanup {
			_ = os.Remove(tempName)
		}
	}()

	if _, err := tempFile.Write(data); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("write temp inventory file: %w", err)
	}

	if err := tempFile.Chmod(inventoryFileMode); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("chmod temp inventory file: %w", err)
	}

	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("close temp inventory file: %w", err)
	}

	if err := os.Rename(tempName, r.inventoryPath); err != nil {
		return fmt.Errorf("replace inventory file: %w", err)
	}

	cleanup = false

	if err := os.Chmod(r.inventoryPath, inventoryFileMode); err != nil {
		return fmt.Errorf("chmod inventory file: %w", err)
	}

	return nil
}

func normalizeInventoryPath(path string) (string, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve inventory path: %w", err)
	}

	return filepath.Clean(absPath), nil
}

func lockForPath(path string) *sync.RWMutex {
	lockRegistryMu.Lock()
	defer lockRegistryMu.Unlock()

	if mu, ok := pathLockMap[path]; ok {
		return mu
	}

	mu := &sync.RWMutex{}
	pathLockMap[path] = mu
	return mu
}
