// Command sectord runs a single sector: it loads a TOML config, opens the
// Postgres pool used for credential announcements and inventory lookups,
// listens for player connections, and runs until interrupted.
package main

import (
	"context"
	"flag"
	"log/slog"
	"net"
	"os"
	"os/signal"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dm-vev/adamant/server"
	"github.com/dm-vev/adamant/server/sector"
)

func main() {
	configPath := flag.String("config", "sector.toml", "path to the sector's TOML config file")
	listenAddr := flag.String("listen", "0.0.0.0:9836", "address player connections are accepted on")
	dbURL := flag.String("db", "", "Postgres connection string (required)")
	flag.Parse()

	log := slog.Default()

	if err := run(*configPath, *listenAddr, *dbURL, log); err != nil {
		log.Error("sectord exited", "error", err)
		os.Exit(1)
	}
}

func run(configPath, listenAddr, dbURL string, log *slog.Logger) error {
	uc, err := server.LoadUserConfig(configPath)
	if err != nil {
		log.Warn("load config: falling back to default", "path", configPath, "error", err)
		uc = server.DefaultUserConfig()
	}

	if dbURL == "" {
		return errRequiredFlag("-db")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	db, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		return err
	}
	defer db.Close()

	l, err := net.Listen("tcp", listenAddr)
	if err != nil {
		return err
	}

	ids := sector.NewIDAllocator(server.DefaultEpoch())
	voxjects := make([]*sector.Voxject, len(uc.Voxjects))
	for i, v := range uc.Voxjects {
		voxjects[i] = &sector.Voxject{
			ID:        ids.Next(),
			Name:      v.Name,
			Generator: sector.NewPerlinGenerator(int64(i), 0, 32, 128),
		}
	}

	sec, err := server.Config{
		Log:       log,
		Name:      uc.Name,
		Voxjects:  voxjects,
		Physics:   &sector.NopPhysics{},
		Listeners: []net.Listener{l},
		DB:        db,
	}.New()
	if err != nil {
		return err
	}

	log.Info("sector starting", "name", uc.Name, "listen", listenAddr, "voxjects", len(voxjects))
	return sec.Run(ctx)
}

type errRequiredFlag string

func (e errRequiredFlag) Error() string { return "missing required flag " + string(e) }
