package cases

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/myrjola/whodunit/internal/ai"
	"github.com/myrjola/whodunit/internal/casegen"
	"github.com/myrjola/whodunit/internal/db"
	"github.com/myrjola/whodunit/internal/investigation"
	"github.com/myrjola/whodunit/internal/repositories"
	"github.com/myrjola/whodunit/internal/storage"
	"github.com/spf13/cobra"
)

var Group = &cobra.Group{
	ID:    "cases",
	Title: "Case operations",
}

func init() {
	Generate.Flags().String("sqlite-url", "./whodunit.sqlite", "SQLite URL")
	Generate.Flags().String("media-dir", "./media", "directory for generated media")
	Generate.Flags().Bool("portraits", false, "generate suspect portraits")
	Show.Flags().String("sqlite-url", "./whodunit.sqlite", "SQLite URL")
}

var Generate = &cobra.Command{
	Use:     "gen [hint]",
	GroupID: "cases",
	Short:   "Generate case",
	Long:    `Generates a murder case and stores it ready for investigation`,
	Run: func(cmd *cobra.Command, args []string) {
		logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
		ctx := context.Background()

		dbURL, err := cmd.Flags().GetString("sqlite-url")
		if err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "invalid sqlite-url flag: %v\n", err)
			return
		}
		dbs, err := db.NewDatabase(dbURL)
		if err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "Database error: %v\n", err)
			return
		}

		aiClient := ai.NewClient(os.Getenv("OPENAI_API_KEY"))

		var (
			images ai.ImageGenerator
			media  storage.Store
		)
		if withPortraits, _ := cmd.Flags().GetBool("portraits"); withPortraits {
			mediaDir, _ := cmd.Flags().GetString("media-dir")
			images = aiClient
			media = storage.NewFilesystem(mediaDir, "/media", logger)
		}

		orchestrator, err := casegen.NewOrchestrator(aiClient, images, media, logger)
		if err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "Orchestrator error: %v\n", err)
			return
		}

		generated, err := orchestrator.Generate(ctx, strings.Join(args, " "))
		if err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "Generation error: %v\n", err)
			return
		}

		repo := repositories.NewCaseRepository(dbs, logger)
		if err = repo.Create(ctx, generated, investigation.NewProgress(generated.ID)); err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "Persistence error: %v\n", err)
			return
		}

		fmt.Printf("Generated case %s: %s\n", generated.ID, generated.Story.Title)
	},
}

var Show = &cobra.Command{
	Use:     "show [caseID]",
	GroupID: "cases",
	Short:   "Show case solution",
	Long:    `Prints a case including its solution, for debugging generated cases`,
	Args:    cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
		ctx := context.Background()

		dbURL, err := cmd.Flags().GetString("sqlite-url")
		if err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "invalid sqlite-url flag: %v\n", err)
			return
		}
		dbs, err := db.NewDatabase(dbURL)
		if err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "Database error: %v\n", err)
			return
		}

		repo := repositories.NewCaseRepository(dbs, logger)
		c, err := repo.Get(ctx, args[0])
		if err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "Lookup error: %v\n", err)
			return
		}

		fmt.Printf("%s\n%s\n\n", c.Story.Title, c.Story.Setting)
		fmt.Printf("Victim: %s (%s), died of %s around %s\n",
			c.Story.Victim.Name, c.Story.Victim.Profession,
			c.Story.Victim.CauseOfDeath, c.Story.Victim.DeathTimeEstimate)
		fmt.Printf("Killer: %s\n\n", c.Story.Killer)
		for _, node := range c.Map {
			fmt.Printf("%s %s -> %s\n", node.ID, node.FullName, strings.Join(node.Connections, ", "))
			for _, clue := range c.ProcessedClues[node.FullName] {
				fmt.Printf("  [%s/%s, difficulty %d] %s\n",
					clue.Type, clue.Category, clue.Discovery.Difficulty, clue.Content)
			}
		}
	},
}
