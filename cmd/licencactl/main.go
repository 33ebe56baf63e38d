package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/licenca-shop/licenca/internal/auth"
	"github.com/licenca-shop/licenca/internal/config"
	"github.com/licenca-shop/licenca/internal/licensekeys"
	"github.com/licenca-shop/licenca/internal/postgres"
	"github.com/licenca-shop/licenca/internal/users"
)

// licencactl is the operator tool: schema migrations, license key imports
// and admin-user bootstrap. Everything else goes through the admin API.
func main() {
	_ = godotenv.Load()
	log := logrus.New()

	app := &cli.App{
		Name:  "licencactl",
		Usage: "operate the licenca platform",
		Commands: []*cli.Command{
			{
				Name:  "migrate",
				Usage: "apply pending database migrations",
				Action: func(c *cli.Context) error {
					cfg, err := config.Load()
					if err != nil {
						return err
					}
					if err := postgres.Migrate(cfg.PostgresDSN); err != nil {
						return err
					}
					log.Info("migrations applied")
					return nil
				},
			},
			{
				Name:      "import-keys",
				Usage:     "bulk-import license keys for a product from a file (one key per line)",
				ArgsUsage: "<product-id> <file>",
				Action:    importKeys,
			},
			{
				Name:  "create-admin",
				Usage: "create an admin user",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "email", Required: true},
					&cli.StringFlag{Name: "password", Required: true},
					&cli.StringFlag{Name: "tenant", Value: "EUR"},
				},
				Action: createAdmin,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.WithError(err).Fatal("command failed")
	}
}

func importKeys(c *cli.Context) error {
	if c.NArg() != 2 {
		return cli.Exit("usage: licencactl import-keys <product-id> <file>", 2)
	}
	productID, path := c.Args().Get(0), c.Args().Get(1)

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	var values []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		if v := strings.TrimSpace(sc.Text()); v != "" {
			values = append(values, v)
		}
	}
	if err := sc.Err(); err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	ctx := context.Background()
	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		return err
	}
	defer db.Close()

	repo := &licensekeys.Repo{DB: db}
	n, err := repo.Import(ctx, productID, values)
	if err != nil {
		return err
	}
	fmt.Printf("imported %d keys (%d duplicates skipped)\n", n, len(values)-n)
	return nil
}

func createAdmin(c *cli.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	ctx := context.Background()
	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		return err
	}
	defer db.Close()

	hash, err := auth.HashPassword(c.String("password"))
	if err != nil {
		return err
	}
	u := users.User{
		ID:           uuid.NewString(),
		Email:        strings.ToLower(strings.TrimSpace(c.String("email"))),
		PasswordHash: hash,
		Role:         users.RoleAdmin,
		TenantID:     strings.ToUpper(c.String("tenant")),
		IsActive:     true,
	}
	repo := &users.Repo{DB: db}
	if err := repo.Create(ctx, u); err != nil {
		return err
	}
	fmt.Printf("admin %s created (%s)\n", u.Email, u.ID)
	return nil
}
