package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"cinequery/internal/adapter/catalog"
	"cinequery/internal/di"
	"cinequery/internal/infra/config"
)

var (
	version = "dev"

	// Global flags
	verbose     bool
	catalogPath string

	// Stats command flags
	topGenres int

	// Ask command flags
	askTimeout int
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "catalogctl",
	Short:   "Inspect and query the CineQuery movie catalog",
	Version: version,
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show catalog summary statistics",
	RunE:  showStats,
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the catalog file for structural problems",
	Long: `Validate loads the catalog file and reports records with empty titles,
out-of-range ratings, or implausible years. Exits non-zero when any
problem is found, so it can gate a deployment.`,
	RunE: validateCatalog,
}

var askCmd = &cobra.Command{
	Use:   "ask [query]",
	Short: "Run the full query pipeline from the terminal",
	Long: `Ask runs the translate -> filter -> synthesize pipeline against the
configured generation service and prints the response envelope as JSON.

Requires GEMINI_API_KEY (or GEMINI_API_KEY_FILE) to be set.

Examples:
  catalogctl ask "best sci-fi movies of the 90s"
  catalogctl ask --timeout 60 "movies directed by Hayao Miyazaki"`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVar(&catalogPath, "catalog", "", "catalog file path (defaults to CATALOG_PATH)")

	statsCmd.Flags().IntVar(&topGenres, "top-genres", 10, "number of genres to list")
	askCmd.Flags().IntVar(&askTimeout, "timeout", 120, "overall pipeline timeout in seconds")

	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(askCmd)
}

func newLogger() *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}
	handler := slog.NewJSONHandler(os.Stderr, opts)
	return slog.New(handler)
}

func loadConfig() *config.Config {
	_ = godotenv.Load()
	cfg := config.Load()
	if catalogPath != "" {
		cfg.CatalogPath = catalogPath
	}
	return cfg
}

func showStats(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	store := catalog.NewStore(cfg.CatalogPath, newLogger())

	movies := store.Movies()
	if len(movies) == 0 {
		return fmt.Errorf("catalog at %s is empty or unreadable", cfg.CatalogPath)
	}

	minYear, maxYear := 0, 0
	withDirector := 0
	genreCounts := make(map[string]int)
	for i := range movies {
		m := &movies[i]
		if m.Year != nil {
			if minYear == 0 || *m.Year < minYear {
				minYear = *m.Year
			}
			if *m.Year > maxYear {
				maxYear = *m.Year
			}
		}
		if m.Director != nil && *m.Director != "" {
			withDirector++
		}
		for _, g := range m.Genres {
			genreCounts[g]++
		}
	}

	type genreCount struct {
		name  string
		count int
	}
	genres := make([]genreCount, 0, len(genreCounts))
	for name, count := range genreCounts {
		genres = append(genres, genreCount{name, count})
	}
	sort.Slice(genres, func(i, j int) bool {
		if genres[i].count != genres[j].count {
			return genres[i].count > genres[j].count
		}
		return genres[i].name < genres[j].name
	})
	if len(genres) > topGenres {
		genres = genres[:topGenres]
	}

	fmt.Printf("Catalog: %s\n", cfg.CatalogPath)
	fmt.Printf("  Records:       %d\n", len(movies))
	fmt.Printf("  Year range:    %d - %d\n", minYear, maxYear)
	fmt.Printf("  With director: %d\n", withDirector)
	fmt.Printf("  Top genres:\n")
	for _, g := range genres {
		fmt.Printf("    %-16s %d\n", g.name, g.count)
	}

	return nil
}

func validateCatalog(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	store := catalog.NewStore(cfg.CatalogPath, newLogger())

	movies := store.Movies()
	if len(movies) == 0 {
		return fmt.Errorf("catalog at %s is empty or unreadable", cfg.CatalogPath)
	}

	problems := 0
	for i := range movies {
		m := &movies[i]
		if m.Title == "" {
			fmt.Printf("record %d: empty title\n", i)
			problems++
		}
		if m.Rating != nil && (*m.Rating < 0 || *m.Rating > 10) {
			fmt.Printf("record %d (%s): rating %.1f out of range\n", i, m.Title, *m.Rating)
			problems++
		}
		if m.Year != nil && (*m.Year < 1870 || *m.Year > time.Now().Year()+5) {
			fmt.Printf("record %d (%s): implausible year %d\n", i, m.Title, *m.Year)
			problems++
		}
	}

	if problems > 0 {
		return fmt.Errorf("catalog validation failed: %d problem(s)", problems)
	}

	fmt.Printf("OK: %d records\n", len(movies))
	return nil
}

func runAsk(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	logger := newLogger()

	if cfg.GeminiAPIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY (or GEMINI_API_KEY_FILE) is required")
	}

	components := di.NewApplicationComponents(cfg, logger)

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(askTimeout)*time.Second)
	defer cancel()

	result, err := components.QueryUsecase.Execute(ctx, args[0])
	if err != nil {
		return err
	}

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
