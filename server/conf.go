// Package server wires together a sector.SharedSector, its compute pool and
// tick thread, the credential-notification listener and the connection
// accept loop into one runnable unit.
package server

import (
	"fmt"
	"log/slog"
	"net"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pelletier/go-toml"

	"github.com/dm-vev/adamant/server/credentials"
	"github.com/dm-vev/adamant/server/sector"
)

// defaultEpoch is the Unix-time floor IDs are measured from when Config.Epoch
// is left zero. original_source hard-codes the project's first-commit date
// for this purpose; this implementation keeps that value as a default but
// lets it be overridden, since nothing in the ID layout depends on its exact
// value beyond "far enough in the past that the 47-bit seconds field never
// overflows within the sector's lifetime".
var defaultEpoch = time.Date(2023, time.January, 1, 0, 0, 0, 0, time.UTC)

// DefaultEpoch returns the Config.Epoch value used when one isn't set.
func DefaultEpoch() time.Time { return defaultEpoch }

// VoxjectConfig names one voxject in a sector config file.
type VoxjectConfig struct {
	Name string `toml:"name"`
}

// UserConfig is the on-disk sector configuration: a sector name and its
// voxject list, per §6's "single sector-config file (hierarchical
// key-value)". It is loaded with pelletier/go-toml, the same library the
// teacher uses for its whitelist file.
type UserConfig struct {
	Name     string          `toml:"name"`
	Voxjects []VoxjectConfig `toml:"voxjects"`
}

// LoadUserConfig reads and parses a TOML sector config file at path.
func LoadUserConfig(path string) (UserConfig, error) {
	var uc UserConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return uc, fmt.Errorf("read config: %w", err)
	}
	if err := toml.Unmarshal(b, &uc); err != nil {
		return uc, fmt.Errorf("parse config: %w", err)
	}
	return uc, nil
}

// Config contains everything needed to run a Sector.
type Config struct {
	// Log is the Logger used throughout the sector. If nil, Log is set to
	// slog.Default().
	Log *slog.Logger
	// Name is the sector's name, used both in the first Sync message and as
	// the Postgres LISTEN/NOTIFY channel name ("sector_<name>").
	Name string
	// Voxjects are the sector's voxjects and their generators. At least one
	// is required.
	Voxjects []*sector.Voxject
	// Physics is the rigid-body/trimesh-collider world tick-locked chunks
	// are inserted into. Required.
	Physics sector.Physics
	// Listeners accept player connections. At least one is required for any
	// player to ever join.
	Listeners []net.Listener
	// DB is the connection pool used for the credential-notification
	// listener and the one-shot inventory query. Required.
	DB *pgxpool.Pool
	// Epoch is the zero point IDs are measured from. Defaults to
	// defaultEpoch.
	Epoch time.Time
}

// New validates conf, fills in defaults, and constructs a Sector ready to
// Run.
func (conf Config) New() (*Sector, error) {
	if conf.Log == nil {
		conf.Log = slog.Default()
	}
	if conf.Name == "" {
		return nil, fmt.Errorf("config: name must not be empty")
	}
	if len(conf.Voxjects) == 0 {
		return nil, fmt.Errorf("config: at least one voxject is required")
	}
	if conf.Physics == nil {
		return nil, fmt.Errorf("config: physics is required")
	}
	if conf.DB == nil {
		return nil, fmt.Errorf("config: db is required")
	}
	if len(conf.Listeners) == 0 {
		conf.Log.Warn("config: no listeners set, no connections will be accepted")
	}
	if conf.Epoch.IsZero() {
		conf.Epoch = defaultEpoch
	}

	shared := sector.NewSharedSector(conf.Voxjects)
	pool := sector.NewPool()

	return &Sector{
		conf:    conf,
		shared:  shared,
		pool:    pool,
		ids:     sector.NewIDAllocator(conf.Epoch),
		creds:   credentials.NewStore(),
		done:    make(chan struct{}),
	}, nil
}

// DefaultUserConfig returns a starter sector config with a single voxject
// named "main".
func DefaultUserConfig() UserConfig {
	return UserConfig{
		Name:     "sector",
		Voxjects: []VoxjectConfig{{Name: "main"}},
	}
}
