package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewDiagnosisCmd создаёт группу команд для управления diagnosis runs.
func NewDiagnosisCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "diagnosis",
		Short: "Manage diagnosis runs",
	}

	cmd.AddCommand(
		newDiagnosisListCmd(clientFn, outputFn),
		newDiagnosisStartCmd(clientFn, outputFn),
		newDiagnosisShowCmd(clientFn, outputFn),
		newDiagnosisResultsCmd(clientFn, outputFn),
	)

	return cmd
}

func newDiagnosisListCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List diagnosis runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			runs, err := client.ListRuns(limit)
			if err != nil {
				return err
			}

			headers := []string{"ID", "STATUS", "PROGRESS", "MEALS", "CREATED"}
			rows := make([][]string, len(runs))
			for i, r := range runs {
				rows[i] = []string{
					r.ID, r.Status,
					fmt.Sprintf("%d/%d", r.CompletedIngredients, r.TotalIngredients),
					fmt.Sprintf("%d", r.MealsAnalyzed),
					r.CreatedAt,
				}
			}

			out.Print(headers, rows, runs)
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of results")

	return cmd
}

func newDiagnosisStartCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start a new diagnosis run",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			run, err := client.CreateRun()
			if err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Diagnosis run started: %s", run.ID))
			out.Print(
				[]string{"ID", "STATUS", "CREATED"},
				[][]string{{run.ID, run.Status, run.CreatedAt}},
				run,
			)
			return nil
		},
	}
}

func newDiagnosisShowCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Show diagnosis run details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			run, err := client.GetRun(args[0])
			if err != nil {
				return err
			}

			out.Print(
				[]string{"ID", "STATUS", "PROGRESS", "MEALS", "SUFFICIENT", "ERROR"},
				[][]string{{
					run.ID, run.Status,
					fmt.Sprintf("%d/%d", run.CompletedIngredients, run.TotalIngredients),
					fmt.Sprintf("%d", run.MealsAnalyzed),
					fmt.Sprintf("%t", run.SufficientData),
					run.Error,
				}},
				run,
			)
			return nil
		},
	}
}

func newDiagnosisResultsCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "results RUN_ID",
		Short: "Show diagnosis results",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			results, err := client.GetRunResults(args[0])
			if err != nil {
				return err
			}

			headers := []string{"INGREDIENT_ID", "CONFIDENCE", "LEVEL", "EATEN", "FOLLOWED"}
			rows := make([][]string, len(results.Results))
			for i, r := range results.Results {
				rows[i] = []string{
					r.IngredientID,
					fmt.Sprintf("%.2f", r.ConfidenceScore),
					r.ConfidenceLevel,
					fmt.Sprintf("%d", r.TimesEaten),
					fmt.Sprintf("%d", r.TimesFollowedBySymptoms),
				}
			}
			out.Print(headers, rows, results)

			if len(results.DiscountedIngredients) > 0 && !out.jsonMode {
				out.Success(fmt.Sprintf("\nDiscounted ingredients: %d", len(results.DiscountedIngredients)))
				dHeaders := []string{"INGREDIENT_ID", "CONFOUNDED_BY", "JUSTIFICATION"}
				dRows := make([][]string, len(results.DiscountedIngredients))
				for i, d := range results.DiscountedIngredients {
					dRows[i] = []string{d.IngredientID, d.ConfoundedBy, d.DiscardJustification}
				}
				out.Table(dHeaders, dRows)
			}
			return nil
		},
	}
}
