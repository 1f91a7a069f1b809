package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/georgemunganga/stockpdv/internal/config"
	"github.com/georgemunganga/stockpdv/internal/database"
	"github.com/georgemunganga/stockpdv/internal/modules/catalog"
	"github.com/georgemunganga/stockpdv/internal/modules/inventory"
	"github.com/georgemunganga/stockpdv/internal/modules/user"
)

func main() {
	app := &cli.App{
		Name:  "stockpdv",
		Usage: "inventory and point-of-sale API",
		Commands: []*cli.Command{
			{
				Name:  "serve",
				Usage: "run the HTTP API",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "migrate", Usage: "apply pending migrations before serving", Value: true},
				},
				Action: serve,
			},
			{
				Name:  "migrate",
				Usage: "manage the database schema",
				Subcommands: []*cli.Command{
					{Name: "up", Usage: "apply all pending migrations", Action: migrateUp},
					{
						Name:   "down",
						Usage:  "roll back migrations",
						Flags:  []cli.Flag{&cli.IntFlag{Name: "steps", Value: 1}},
						Action: migrateDown,
					},
				},
			},
			{
				Name:  "products",
				Usage: "bulk catalog transfer",
				Subcommands: []*cli.Command{
					{
						Name:   "import",
						Usage:  "upsert products from a spreadsheet",
						Flags:  transferFlags(),
						Action: importProducts,
					},
					{
						Name:   "export",
						Usage:  "write the catalog to a spreadsheet",
						Flags:  transferFlags(),
						Action: exportProducts,
					},
				},
			},
			{
				Name:  "users",
				Usage: "user administration",
				Subcommands: []*cli.Command{
					{
						Name:  "create-admin",
						Usage: "create an active administrator",
						Flags: []cli.Flag{
							&cli.StringFlag{Name: "name", Required: true},
							&cli.StringFlag{Name: "email", Required: true},
							&cli.StringFlag{Name: "password", Required: true, EnvVars: []string{"STOCKPDV_ADMIN_PASSWORD"}},
						},
						Action: createAdmin,
					},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.WithError(err).Fatal("stockpdv failed")
	}
}

func transferFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "file", Aliases: []string{"f"}, Required: true},
		&cli.StringFlag{Name: "format", Usage: "csv or xlsx, defaults to the file extension"},
	}
}

// bootstrap loads configuration and opens the database for a command.
func bootstrap(ctx context.Context) (*config.Config, *sql.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	cfg.ConfigureLogger()

	db, err := database.Open(ctx, database.Options{
		URL:             cfg.DatabaseURL,
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: cfg.DBConnMaxLifetime,
	})
	if err != nil {
		return nil, nil, err
	}
	return cfg, db, nil
}

func migrateUp(c *cli.Context) error {
	_, db, err := bootstrap(c.Context)
	if err != nil {
		return err
	}
	defer db.Close()
	return database.MigrateUp(db)
}

func migrateDown(c *cli.Context) error {
	_, db, err := bootstrap(c.Context)
	if err != nil {
		return err
	}
	defer db.Close()
	return database.MigrateDown(db, c.Int("steps"))
}

func catalogService(cfg *config.Config, db *sql.DB) catalog.Service {
	ledger := inventory.NewService(inventory.NewPostgresRepository(db), cfg.HistoryLimit)
	return catalog.NewService(catalog.NewPostgresRepository(db), ledger)
}

func transferFormat(c *cli.Context) (catalog.Format, error) {
	name := c.String("format")
	if name == "" {
		name = strings.TrimPrefix(filepath.Ext(c.String("file")), ".")
	}
	return catalog.ParseFormat(name)
}

func importProducts(c *cli.Context) error {
	format, err := transferFormat(c)
	if err != nil {
		return err
	}
	cfg, db, err := bootstrap(c.Context)
	if err != nil {
		return err
	}
	defer db.Close()

	f, err := os.Open(c.String("file"))
	if err != nil {
		return err
	}
	defer f.Close()

	results, err := catalogService(cfg, db).Import(c.Context, f, format)
	if err != nil {
		return err
	}

	failed := 0
	for _, res := range results {
		entry := log.WithFields(log.Fields{"row": res.Row, "action": res.Action})
		if res.Action == catalog.ImportFailed {
			failed++
			entry.Warn(res.Error)
			continue
		}
		entry.WithField("product_id", res.ID).Debug("row imported")
	}
	log.WithFields(log.Fields{"rows": len(results), "failed": failed}).Info("import finished")
	if failed > 0 {
		return fmt.Errorf("%d of %d rows failed", failed, len(results))
	}
	return nil
}

func exportProducts(c *cli.Context) error {
	format, err := transferFormat(c)
	if err != nil {
		return err
	}
	cfg, db, err := bootstrap(c.Context)
	if err != nil {
		return err
	}
	defer db.Close()

	f, err := os.Create(c.String("file"))
	if err != nil {
		return err
	}
	if err := catalogService(cfg, db).Export(c.Context, f, format); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func createAdmin(c *cli.Context) error {
	_, db, err := bootstrap(c.Context)
	if err != nil {
		return err
	}
	defer db.Close()

	svc := user.NewService(user.NewPostgresRepository(db))
	u, err := svc.CreateAdmin(c.Context, user.SignUpRequest{
		FullName: c.String("name"),
		Email:    c.String("email"),
		Password: c.String("password"),
	})
	if err != nil {
		return err
	}
	log.WithFields(log.Fields{"user_id": u.ID, "email": u.Email}).Info("administrator created")
	return nil
}
