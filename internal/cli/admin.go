package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"

	"github.com/twm105/bloaty-mcbloatface-sub001/internal/domain"
	"github.com/twm105/bloaty-mcbloatface-sub001/internal/repo"
)

// NewAdminCmd создаёт группу административных команд.
// В отличие от остальных команд, работает с БД напрямую (DB_URL),
// минуя API: нужна до того, как API вообще поднят.
func NewAdminCmd(outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Administrative commands (direct database access)",
	}

	cmd.AddCommand(
		newAdminMigrateCmd(outputFn),
		newAdminSeedCmd(outputFn),
		newAdminCreateAdminCmd(outputFn),
	)

	return cmd
}

func newAdminMigrateCmd(outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := outputFn()
			ctx := cmd.Context()

			pool, err := repo.NewPool(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
			if err := repo.Migrate(ctx, pool, logger); err != nil {
				return err
			}

			out.Success("Migrations applied")
			return nil
		},
	}
}

func newAdminSeedCmd(outputFn func() *Output) *cobra.Command {
	var demo bool

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create the single-user mode MVP user (optionally with demo data)",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := outputFn()
			ctx := cmd.Context()

			pool, err := repo.NewPool(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			users := repo.NewUserRepo(pool)
			err = users.Create(ctx, &domain.User{
				ID:          domain.MVPUserID,
				Email:       "mvp@localhost",
				DisplayName: "MVP User",
				CreatedAt:   time.Now(),
			})
			switch {
			case errors.Is(err, repo.ErrAlreadyExists):
				out.Success("MVP user already exists")
			case err != nil:
				return err
			default:
				out.Success(fmt.Sprintf("MVP user created: %s", domain.MVPUserID))
			}

			if !demo {
				return nil
			}

			meals, symptoms, err := seedDemoData(ctx, pool)
			if err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Demo data seeded: %d meals, %d symptoms", meals, symptoms))
			return nil
		},
	}

	cmd.Flags().BoolVar(&demo, "demo", false, "Seed two weeks of demo meals and symptoms")

	return cmd
}

// seedDemoData создаёт две недели истории питания с «подсаженным»
// триггером: milk встречается через день и через 1-2 часа за ним
// следует bloating. Диагностика на этих данных должна находить milk
// как root cause.
func seedDemoData(ctx context.Context, pool *pgxpool.Pool) (meals, symptoms int, err error) {
	mealRepo := repo.NewMealRepo(pool)
	symptomRepo := repo.NewSymptomRepo(pool)

	plans := []struct {
		name        string
		ingredients []string
		trigger     bool
	}{
		{"Porridge with milk", []string{"oats", "milk", "honey"}, true},
		{"Chicken salad", []string{"chicken", "lettuce", "tomato", "olive oil"}, false},
		{"Cheese omelette", []string{"egg", "cheese", "milk", "butter"}, true},
		{"Rice and vegetables", []string{"rice", "carrot", "broccoli"}, false},
	}

	now := time.Now()
	for day := 14; day >= 1; day-- {
		plan := plans[day%len(plans)]
		eatenAt := now.AddDate(0, 0, -day).Add(8 * time.Hour)

		meal := &domain.Meal{
			ID:            uuid.New(),
			UserID:        domain.MVPUserID,
			Name:          plan.name,
			Status:        domain.MealStatusPublished,
			EatenAt:       eatenAt,
			LocalTimezone: "UTC",
			CreatedAt:     eatenAt,
			UpdatedAt:     eatenAt,
		}
		for _, name := range plan.ingredients {
			meal.Ingredients = append(meal.Ingredients, domain.MealIngredient{
				ID:             uuid.New(),
				MealID:         meal.ID,
				IngredientName: domain.NormalizeIngredientName(name),
				State:          domain.IngredientStateCooked,
			})
		}

		if err := mealRepo.Create(ctx, meal); err != nil {
			return meals, symptoms, fmt.Errorf("seed meal: %w", err)
		}
		meals++

		if !plan.trigger {
			continue
		}

		start := eatenAt.Add(90 * time.Minute)
		symptom := &domain.Symptom{
			ID:          uuid.New(),
			UserID:      domain.MVPUserID,
			Description: "bloating and stomach discomfort",
			Tags:        []domain.SymptomTag{{Name: "bloating", Severity: 6}},
			StartTime:   start,
			CreatedAt:   start,
		}
		if err := symptomRepo.Create(ctx, symptom); err != nil {
			return meals, symptoms, fmt.Errorf("seed symptom: %w", err)
		}
		symptoms++
	}

	return meals, symptoms, nil
}

func newAdminCreateAdminCmd(outputFn func() *Output) *cobra.Command {
	var password string
	var displayName string

	cmd := &cobra.Command{
		Use:   "create-admin EMAIL",
		Short: "Create an admin user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := outputFn()
			ctx := cmd.Context()

			if len(password) < 8 {
				return fmt.Errorf("password must be at least 8 characters")
			}

			hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
			if err != nil {
				return err
			}

			pool, err := repo.NewPool(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			user := &domain.User{
				ID:           uuid.New(),
				Email:        args[0],
				DisplayName:  displayName,
				PasswordHash: string(hash),
				IsAdmin:      true,
				CreatedAt:    time.Now(),
			}

			if err := repo.NewUserRepo(pool).Create(ctx, user); err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Admin user created: %s (%s)", user.Email, user.ID))
			return nil
		},
	}

	cmd.Flags().StringVar(&password, "password", "", "Password (min 8 characters)")
	cmd.Flags().StringVar(&displayName, "name", "", "Display name")
	cmd.MarkFlagRequired("password")

	return cmd
}
