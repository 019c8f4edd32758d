package ingredient

import (
	"context"
	"encoding/csv"
	"errors"
	"io"
	"strings"

	"Foodgram-Backend/domain"
	"Foodgram-Backend/entities"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type (
	IngredientService interface {
		GetIngredients(ctx context.Context, namePrefix string) ([]domain.IngredientResponse, error)
		GetIngredientByID(ctx context.Context, id string) (domain.IngredientResponse, error)
		ImportCSV(ctx context.Context, r io.Reader) (ImportResult, error)
	}

	// ImportResult reports what the offline CSV import did.
	ImportResult struct {
		Imported int
		Skipped  int
	}

	ingredientService struct {
		ingredientRepository IngredientRepository
	}
)

func NewIngredientService(ingredientRepository IngredientRepository) IngredientService {
	return &ingredientService{ingredientRepository: ingredientRepository}
}

func (s *ingredientService) GetIngredients(ctx context.Context, namePrefix string) ([]domain.IngredientResponse, error) {
	ingredients, err := s.ingredientRepository.GetIngredients(ctx, namePrefix)
	if err != nil {
		return nil, err
	}

	result := make([]domain.IngredientResponse, 0, len(ingredients))
	for _, ingredient := range ingredients {
		result = append(result, domain.IngredientResponse{
			ID:              ingredient.ID.String(),
			Name:            ingredient.Name,
			MeasurementUnit: ingredient.MeasurementUnit,
		})
	}
	return result, nil
}

func (s *ingredientService) GetIngredientByID(ctx context.Context, id string) (domain.IngredientResponse, error) {
	ingredient, err := s.ingredientRepository.GetIngredientByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.IngredientResponse{}, domain.ErrIngredientNotFound
		}
		return domain.IngredientResponse{}, err
	}

	return domain.IngredientResponse{
		ID:              ingredient.ID.String(),
		Name:            ingredient.Name,
		MeasurementUnit: ingredient.MeasurementUnit,
	}, nil
}

// ImportCSV loads two-column (name, measurement unit) rows. Malformed rows
// and rows duplicating an existing pair case-insensitively are skipped, not
// errors.
func (s *ingredientService) ImportCSV(ctx context.Context, r io.Reader) (ImportResult, error) {
	existing, err := s.ingredientRepository.GetAllNameUnits(ctx)
	if err != nil {
		return ImportResult{}, err
	}

	seen := make(map[string]bool, len(existing))
	for _, ingredient := range existing {
		seen[pairKey(ingredient.Name, ingredient.MeasurementUnit)] = true
	}

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	var result ImportResult
	var toAdd []*entities.Ingredient
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			result.Skipped++
			continue
		}
		if len(row) != 2 {
			result.Skipped++
			continue
		}

		name := strings.TrimSpace(row[0])
		unit := strings.TrimSpace(row[1])
		if name == "" || unit == "" || seen[pairKey(name, unit)] {
			result.Skipped++
			continue
		}

		seen[pairKey(name, unit)] = true
		toAdd = append(toAdd, &entities.Ingredient{
			ID:              uuid.New(),
			Name:            name,
			MeasurementUnit: unit,
		})
	}

	if len(toAdd) > 0 {
		if err := s.ingredientRepository.CreateIngredients(ctx, toAdd); err != nil {
			return ImportResult{}, err
		}
	}

	result.Imported = len(toAdd)
	return result, nil
}

func pairKey(name, unit string) string {
	return strings.ToLower(name) + "\x00" + strings.ToLower(unit)
}
