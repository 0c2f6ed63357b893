package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// NewMealCmd создаёт группу команд для управления meals.
func NewMealCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "meal",
		Short: "Manage meals",
	}

	cmd.AddCommand(
		newMealListCmd(clientFn, outputFn),
		newMealAddCmd(clientFn, outputFn),
		newMealShowCmd(clientFn, outputFn),
		newMealPublishCmd(clientFn, outputFn),
		newMealDeleteCmd(clientFn, outputFn),
		newMealAnalyzeCmd(clientFn, outputFn),
	)

	return cmd
}

func newMealListCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var status string
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List meals",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			meals, err := client.ListMeals(ListOpts{Status: status, Limit: limit})
			if err != nil {
				return err
			}

			headers := []string{"ID", "NAME", "STATUS", "INGREDIENTS", "EATEN"}
			rows := make([][]string, len(meals))
			for i, m := range meals {
				rows[i] = []string{m.ID, m.Name, m.Status, fmt.Sprintf("%d", len(m.Ingredients)), m.EatenAt}
			}

			out.Print(headers, rows, meals)
			return nil
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "Filter by status (draft, published)")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of results")

	return cmd
}

func newMealAddCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var notes string
	var ingredients []string
	var publish bool

	cmd := &cobra.Command{
		Use:   "add NAME",
		Short: "Add a meal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			req := CreateMealRequest{
				Name:  args[0],
				Notes: notes,
			}

			for _, spec := range ingredients {
				ing, err := parseIngredient(spec)
				if err != nil {
					return err
				}
				req.Ingredients = append(req.Ingredients, ing)
			}

			meal, err := client.CreateMeal(req)
			if err != nil {
				return err
			}

			if publish {
				meal, err = client.PublishMeal(meal.ID)
				if err != nil {
					return err
				}
			}

			out.Success(fmt.Sprintf("Meal created: %s", meal.ID))
			out.Print(
				[]string{"ID", "NAME", "STATUS", "EATEN"},
				[][]string{{meal.ID, meal.Name, meal.Status, meal.EatenAt}},
				meal,
			)
			return nil
		},
	}

	cmd.Flags().StringVar(&notes, "notes", "", "Free-form notes")
	cmd.Flags().StringSliceVar(&ingredients, "ingredient", nil, "Ingredient as NAME[:STATE[:QUANTITY]] (repeatable)")
	cmd.Flags().BoolVar(&publish, "publish", false, "Publish immediately")

	return cmd
}

func newMealShowCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Show meal details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			meal, err := client.GetMeal(args[0])
			if err != nil {
				return err
			}

			headers := []string{"INGREDIENT", "STATE", "QUANTITY"}
			rows := make([][]string, len(meal.Ingredients))
			for i, ing := range meal.Ingredients {
				rows[i] = []string{ing.IngredientName, ing.State, ing.Quantity}
			}

			out.Success(fmt.Sprintf("%s (%s, %s)", meal.Name, meal.Status, meal.EatenAt))
			out.Print(headers, rows, meal)
			return nil
		},
	}
}

func newMealPublishCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "publish ID",
		Short: "Publish a draft meal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			meal, err := client.PublishMeal(args[0])
			if err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Meal published: %s", meal.ID))
			return nil
		},
	}
}

func newMealDeleteCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a meal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			if err := client.DeleteMeal(args[0]); err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Meal deleted: %s", args[0]))
			return nil
		},
	}
}

func newMealAnalyzeCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "analyze DESCRIPTION",
		Short: "Parse a free-form meal description into ingredients",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			analysis, err := client.AnalyzeMeal(strings.Join(args, " "))
			if err != nil {
				return err
			}

			headers := []string{"INGREDIENT", "STATE", "QUANTITY", "CONFIDENCE"}
			rows := make([][]string, len(analysis.Ingredients))
			for i, ing := range analysis.Ingredients {
				confidence := ""
				if ing.Confidence != nil {
					confidence = fmt.Sprintf("%.2f", *ing.Confidence)
				}
				rows[i] = []string{ing.Name, ing.State, ing.Quantity, confidence}
			}

			out.Print(headers, rows, analysis)
			return nil
		},
	}
}

// parseIngredient разбирает спецификацию NAME[:STATE[:QUANTITY]].
func parseIngredient(spec string) (MealIngredientInput, error) {
	parts := strings.SplitN(spec, ":", 3)
	if parts[0] == "" {
		return MealIngredientInput{}, fmt.Errorf("invalid ingredient %q, expected NAME[:STATE[:QUANTITY]]", spec)
	}

	ing := MealIngredientInput{Name: parts[0]}
	if len(parts) > 1 {
		ing.State = parts[1]
	}
	if len(parts) > 2 {
		ing.Quantity = parts[2]
	}
	return ing, nil
}
