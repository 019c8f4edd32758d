// Command seed loads ingredients from a CSV file (name,measurement_unit per
// row) into the database. Malformed rows and duplicates are skipped.
package main

import (
	"Foodgram-Backend/cmd/config"
	migration "Foodgram-Backend/cmd/database/migrate"
	"Foodgram-Backend/internal/utils"
	"Foodgram-Backend/pkg/ingredient"
	"context"
	"flag"
	"log"
	"os"
)

func main() {
	path := flag.String("file", "data/ingredients.csv", "path to the ingredients CSV file")
	flag.Parse()

	utils.LoadConfig()

	db, err := config.ConnectDB()
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}
	if err := migration.Migrate(db); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	file, err := os.Open(*path)
	if err != nil {
		log.Fatalf("failed to open %s: %v", *path, err)
	}
	defer file.Close()

	ingredientService := ingredient.NewIngredientService(ingredient.NewIngredientRepository(db))
	result, err := ingredientService.ImportCSV(context.Background(), file)
	if err != nil {
		log.Fatalf("import failed: %v", err)
	}

	log.Printf("imported %d ingredients, skipped %d rows", result.Imported, result.Skipped)
}
