package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/yungbote/branchaudit-backend/internal/app"
	"github.com/yungbote/branchaudit-backend/internal/catalogseed"
)

func main() {
	var path string
	var check bool
	flag.StringVar(&path, "file", "", "catalog YAML to load (defaults to the built-in starter catalog)")
	flag.BoolVar(&check, "check", false, "validate the file and exit without writing")
	flag.Parse()

	_ = godotenv.Load()

	file, err := loadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	if check {
		total := 0
		for _, qn := range file.Questionnaires {
			total += len(qn.Questions)
		}
		fmt.Printf("ok: %d questionnaires, %d questions\n", len(file.Questionnaires), total)
		return
	}

	ctx := context.Background()
	application, err := app.New(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init app: %v\n", err)
		os.Exit(1)
	}
	defer application.Close()

	res, err := catalogseed.NewSeeder(application.Log, application.Services.Catalog).Apply(ctx, file)
	if err != nil {
		application.Log.Error("Catalog seed failed", "error", err)
		application.Close()
		os.Exit(1)
	}
	fmt.Printf("topics=%d locations=%d questions_created=%d questions_skipped=%d\n",
		res.TopicsCreated, res.LocationsCreated, res.QuestionsCreated, res.QuestionsSkipped)
}

func loadFile(path string) (*catalogseed.File, error) {
	if path == "" {
		return catalogseed.Default()
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return catalogseed.Parse(f)
}
