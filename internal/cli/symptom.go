package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

// NewSymptomCmd создаёт группу команд для управления symptoms.
func NewSymptomCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "symptom",
		Short: "Manage symptoms",
	}

	cmd.AddCommand(
		newSymptomListCmd(clientFn, outputFn),
		newSymptomAddCmd(clientFn, outputFn),
		newSymptomDeleteCmd(clientFn, outputFn),
	)

	return cmd
}

func newSymptomListCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List symptoms",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			symptoms, err := client.ListSymptoms(ListOpts{Limit: limit})
			if err != nil {
				return err
			}

			headers := []string{"ID", "DESCRIPTION", "TAGS", "START"}
			rows := make([][]string, len(symptoms))
			for i, s := range symptoms {
				rows[i] = []string{s.ID, s.Description, formatTags(s.Tags), s.StartTime}
			}

			out.Print(headers, rows, symptoms)
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of results")

	return cmd
}

func newSymptomAddCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var tags []string

	cmd := &cobra.Command{
		Use:   "add DESCRIPTION",
		Short: "Record a symptom",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			req := CreateSymptomRequest{
				Description: strings.Join(args, " "),
			}

			for _, spec := range tags {
				tag, err := parseTag(spec)
				if err != nil {
					return err
				}
				req.Tags = append(req.Tags, tag)
			}

			symptom, err := client.CreateSymptom(req)
			if err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Symptom recorded: %s", symptom.ID))
			out.Print(
				[]string{"ID", "DESCRIPTION", "TAGS", "START"},
				[][]string{{symptom.ID, symptom.Description, formatTags(symptom.Tags), symptom.StartTime}},
				symptom,
			)
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&tags, "tag", nil, "Symptom tag as NAME=SEVERITY, severity 1-10 (repeatable)")

	return cmd
}

func newSymptomDeleteCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a symptom",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			if err := client.DeleteSymptom(args[0]); err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Symptom deleted: %s", args[0]))
			return nil
		},
	}
}

// parseTag разбирает спецификацию NAME=SEVERITY.
func parseTag(spec string) (SymptomTagInput, error) {
	name, sev, ok := strings.Cut(spec, "=")
	if !ok || name == "" {
		return SymptomTagInput{}, fmt.Errorf("invalid tag %q, expected NAME=SEVERITY", spec)
	}

	severity, err := strconv.Atoi(sev)
	if err != nil {
		return SymptomTagInput{}, fmt.Errorf("invalid severity in tag %q: %w", spec, err)
	}

	return SymptomTagInput{Name: name, Severity: severity}, nil
}

func formatTags(tags []SymptomTagInput) string {
	parts := make([]string, len(tags))
	for i, t := range tags {
		parts[i] = fmt.Sprintf("%s=%d", t.Name, t.Severity)
	}
	return strings.Join(parts, ",")
}
