// Command migrate applies and authors the SQL migrations of the marketplace
// schema.
package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	_ "github.com/lib/pq"
	"github.com/marketplace/backend/internal/infrastructure/config"
	"github.com/marketplace/backend/internal/infrastructure/logger"
	"github.com/marketplace/backend/internal/infrastructure/migration"
	"go.uber.org/zap"
)

const defaultMigrationsPath = "migrations"

var errUsage = errors.New("usage")

// env is what a command runs against. migrator is opened lazily so the
// file-only commands work without a database.
type env struct {
	log      *zap.Logger
	out      io.Writer
	path     string
	args     []string
	migrator func() (*migration.Migrator, error)
}

type command struct {
	usage   string
	summary string
	args    int
	run     func(e *env) error
}

var commands = map[string]command{
	"up":      {"up", "Apply all pending migrations", 0, withMigrator((*migration.Migrator).Up)},
	"down":    {"down", "Roll back all migrations", 0, withMigrator((*migration.Migrator).Down)},
	"step":    {"step <n>", "Apply n migrations, negative n rolls back", 1, stepCmd},
	"goto":    {"goto <version>", "Migrate to a specific version", 1, gotoCmd},
	"version": {"version", "Show the current version", 0, versionCmd},
	"status":  {"status", "Show applied and pending migrations", 0, statusCmd},
	"force":   {"force <version>", "Set the version without migrating", 1, forceCmd},
	"create":  {"create <name> [description]", "Create an up/down file pair", 1, createCmd},
	"list":    {"list", "List migration files", 0, listCmd},
}

func main() {
	flags := flag.NewFlagSet("migrate", flag.ExitOnError)
	path := flags.String("path", "", "migrations directory (default ./migrations)")
	level := flags.String("log-level", "info", "debug, info, warn or error")
	_ = flags.Parse(os.Args[1:])

	logCfg := logger.DefaultConfig()
	logCfg.Level = *level
	logCfg.TimeFormat = "2006-01-02 15:04:05"
	log, err := logger.New(logCfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	dir, err := resolveMigrationsPath(*path)
	if err != nil {
		log.Fatal("Failed to resolve migrations path", zap.Error(err))
	}

	var (
		db *sql.DB
		m  *migration.Migrator
	)
	e := &env{
		log:  log,
		out:  os.Stdout,
		path: dir,
		args: flags.Args(),
		migrator: func() (*migration.Migrator, error) {
			var openErr error
			db, m, openErr = openMigrator(dir, log)
			return m, openErr
		},
	}
	err = run(e)
	if m != nil {
		_ = m.Close()
	}
	if db != nil {
		_ = db.Close()
	}

	if errors.Is(err, errUsage) {
		printUsage(os.Stderr)
		os.Exit(2)
	}
	if err != nil {
		log.Fatal("Migration command failed", zap.Strings("args", e.args), zap.Error(err))
	}
}

// run dispatches e.args[0] and leaves the command's own arguments in e.args
func run(e *env) error {
	if len(e.args) == 0 {
		return errUsage
	}
	cmd, ok := commands[e.args[0]]
	if !ok {
		return fmt.Errorf("unknown command %q: %w", e.args[0], errUsage)
	}
	if len(e.args)-1 < cmd.args {
		return fmt.Errorf("%s: %w", cmd.usage, errUsage)
	}
	e.log.Info("Migration CLI started", zap.String("command", e.args[0]), zap.String("migrations_path", e.path))
	e.args = e.args[1:]
	return cmd.run(e)
}

func openMigrator(dir string, log *zap.Logger) (*sql.DB, *migration.Migrator, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("ping database: %w", err)
	}
	m, err := migration.New(db, dir, log)
	if err != nil {
		return db, nil, err
	}
	return db, m, nil
}

func withMigrator(fn func(*migration.Migrator) error) func(*env) error {
	return func(e *env) error {
		m, err := e.migrator()
		if err != nil {
			return err
		}
		return fn(m)
	}
}

func stepCmd(e *env) error {
	n, err := strconv.Atoi(e.args[0])
	if err != nil {
		return fmt.Errorf("step count %q: %w", e.args[0], errUsage)
	}
	return withMigrator(func(m *migration.Migrator) error { return m.Steps(n) })(e)
}

func gotoCmd(e *env) error {
	version, err := strconv.ParseUint(e.args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("version %q: %w", e.args[0], errUsage)
	}
	return withMigrator(func(m *migration.Migrator) error { return m.GoTo(uint(version)) })(e)
}

func forceCmd(e *env) error {
	version, err := strconv.Atoi(e.args[0])
	if err != nil {
		return fmt.Errorf("version %q: %w", e.args[0], errUsage)
	}
	return withMigrator(func(m *migration.Migrator) error { return m.Force(version) })(e)
}

func versionCmd(e *env) error {
	return withMigrator(func(m *migration.Migrator) error {
		version, dirty, err := m.Version()
		if err != nil {
			return err
		}
		if version == 0 {
			e.log.Info("No migrations applied")
			return nil
		}
		e.log.Info("Current migration version", zap.Uint("version", version), zap.Bool("dirty", dirty))
		return nil
	})(e)
}

func statusCmd(e *env) error {
	return withMigrator(func(m *migration.Migrator) error {
		status, err := m.Status()
		if err != nil {
			return err
		}
		e.log.Info("Migration status",
			zap.Uint("version", status.Version),
			zap.Bool("dirty", status.Dirty),
			zap.Int("applied", len(status.Applied)),
			zap.Int("pending", len(status.Pending)),
		)
		for _, name := range status.Pending {
			fmt.Fprintln(e.out, "  pending:", name)
		}
		return nil
	})(e)
}

func createCmd(e *env) error {
	description := strings.Join(e.args[1:], " ")
	mf, err := migration.CreateMigration(e.path, e.args[0], description)
	if err != nil {
		return err
	}
	e.log.Info("Migration created",
		zap.String("version", mf.Version),
		zap.String("up_file", mf.UpPath),
		zap.String("down_file", mf.DownPath),
	)
	return nil
}

func listCmd(e *env) error {
	names, err := migration.ListMigrations(e.path)
	if err != nil {
		return err
	}
	if len(names) == 0 {
		e.log.Info("No migrations found")
		return nil
	}
	for _, name := range names {
		fmt.Fprintln(e.out, "  -", name)
	}
	unpaired, err := migration.UnpairedMigrations(e.path)
	if err != nil {
		return err
	}
	if len(unpaired) > 0 {
		e.log.Warn("Migrations missing an up or down file", zap.Strings("migrations", unpaired))
	}
	return nil
}

// resolveMigrationsPath defaults to ./migrations, then to the repository
// root relative to the executable.
func resolveMigrationsPath(path string) (string, error) {
	if path != "" {
		return filepath.Abs(path)
	}
	if _, err := os.Stat(defaultMigrationsPath); err == nil {
		return filepath.Abs(defaultMigrationsPath)
	}
	if exe, err := os.Executable(); err == nil {
		candidate := filepath.Join(filepath.Dir(exe), "..", "..", defaultMigrationsPath)
		if _, err := os.Stat(candidate); err == nil {
			return filepath.Abs(candidate)
		}
	}
	return filepath.Abs(defaultMigrationsPath)
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: migrate [-path dir] [-log-level level] <command> [arguments]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		fmt.Fprintf(w, "  %-30s %s\n", commands[name].usage, commands[name].summary)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "The database is read from MKT_DATABASE_HOST, MKT_DATABASE_PORT, MKT_DATABASE_USER,")
	fmt.Fprintln(w, "MKT_DATABASE_PASSWORD and MKT_DATABASE_DBNAME.")
}
