package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/spf13/cobra"

	"github.com/emailbuilder/emailbuilder/internal/builder"
	"github.com/emailbuilder/emailbuilder/internal/config"
	"github.com/emailbuilder/emailbuilder/internal/database"
	"github.com/emailbuilder/emailbuilder/internal/logger"
	"github.com/emailbuilder/emailbuilder/internal/repository"
)

var migrationsPath string

var rootCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Database migration tool for EmailBuilder",
}

var upCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply pending migrations, then match the body column to template.body_column_type",
	RunE:  runUp,
}

var downCmd = &cobra.Command{
	Use:   "down [steps]",
	Short: "Roll back the last migration, or the given number of steps",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runDown,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the applied version and the body column type",
	RunE:  runStatus,
}

var createCmd = &cobra.Command{
	Use:   "create [name]",
	Short: "Create a new pair of migration files",
	Args:  cobra.ExactArgs(1),
	RunE:  runCreate,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&migrationsPath, "path", "migrations", "directory holding the migration files")
	rootCmd.AddCommand(upCmd, downCmd, statusCmd, createCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// migrator bundles what every subcommand needs
type migrator struct {
	m   *migrate.Migrate
	cfg *config.Config
	db  *database.Postgres
	log *logger.Logger
}

func openMigrator(cmd *cobra.Command) (*migrator, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	db, err := database.NewPostgres(cmd.Context(), cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	driver, err := postgres.WithInstance(db.DB, &postgres.Config{})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance("file://"+migrationsPath, "postgres", driver)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create migrator: %w", err)
	}

	return &migrator{
		m:   m,
		cfg: cfg,
		db:  db,
		log: logger.New(cfg.Log.Level, "text").WithComponent("migrate"),
	}, nil
}

// Close releases the migration source and the database connection
func (mg *migrator) Close() {
	mg.m.Close()
}

func runUp(cmd *cobra.Command, args []string) error {
	mg, err := openMigrator(cmd)
	if err != nil {
		return err
	}
	defer mg.Close()

	mg.log.Info().Str("path", migrationsPath).Msg("running migrations")
	if err := mg.m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration failed: %w", err)
	}

	if mg.cfg.Template.BodyColumnType == repository.BodyColumnJSON {
		changed, err := repository.EnsureJSONBody(cmd.Context(), mg.db)
		if err != nil {
			return fmt.Errorf("failed to convert body column: %w", err)
		}
		if changed {
			mg.log.Info().Msg("converted email_templates.body to JSONB")
		}
	}

	mg.log.Info().Msg("migrations completed successfully")
	return nil
}

func runDown(cmd *cobra.Command, args []string) error {
	steps := 1
	if len(args) == 1 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n < 1 {
			return fmt.Errorf("steps must be a positive integer, got %q", args[0])
		}
		steps = n
	}

	mg, err := openMigrator(cmd)
	if err != nil {
		return err
	}
	defer mg.Close()

	mg.log.Info().Int("steps", steps).Msg("rolling back migrations")
	if err := mg.m.Steps(-steps); err != nil {
		return fmt.Errorf("rollback failed: %w", err)
	}

	mg.log.Info().Msg("rollback completed successfully")
	return nil
}

func runStatus(cmd *cobra.Command, args []string) error {
	mg, err := openMigrator(cmd)
	if err != nil {
		return err
	}
	defer mg.Close()

	version, dirty, err := mg.m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		fmt.Println("No migrations have been applied")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to get version: %w", err)
	}

	fmt.Printf("Current version: %d\n", version)
	fmt.Printf("Dirty: %v\n", dirty)

	if dataType, err := repository.BodyColumnType(cmd.Context(), mg.db); err == nil {
		fmt.Printf("Body column: %s (configured: %s)\n", dataType, mg.cfg.Template.BodyColumnType)
	}
	return nil
}

func runCreate(cmd *cobra.Command, args []string) error {
	name := builder.NormalizeKey(args[0])
	if name == "" {
		return fmt.Errorf("migration name %q has no usable characters", args[0])
	}

	if err := os.MkdirAll(migrationsPath, 0755); err != nil {
		return fmt.Errorf("failed to create migrations directory: %w", err)
	}

	version, err := nextVersion(migrationsPath)
	if err != nil {
		return err
	}

	upFile := filepath.Join(migrationsPath, fmt.Sprintf("%06d_%s.up.sql", version, name))
	downFile := filepath.Join(migrationsPath, fmt.Sprintf("%06d_%s.down.sql", version, name))

	if err := os.WriteFile(upFile, []byte("-- Add migration SQL here\n"), 0644); err != nil {
		return fmt.Errorf("failed to create up migration: %w", err)
	}
	if err := os.WriteFile(downFile, []byte("-- Add rollback SQL here\n"), 0644); err != nil {
		return fmt.Errorf("failed to create down migration: %w", err)
	}

	fmt.Printf("Created migration files:\n  %s\n  %s\n", upFile, downFile)
	return nil
}

// nextVersion returns one past the highest numeric prefix in dir
func nextVersion(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("failed to read migrations directory: %w", err)
	}

	highest := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		prefix, _, ok := strings.Cut(entry.Name(), "_")
		if !ok {
			continue
		}
		if v, err := strconv.Atoi(prefix); err == nil && v > highest {
			highest = v
		}
	}
	return highest + 1, nil
}
