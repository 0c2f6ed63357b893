// Bloaty CLI — инструмент командной строки для ведения дневника
// питания и симптомов и запуска диагностики через HTTP API.
//
// Использование:
//
//	bloaty [--api-url URL] [--token TOKEN] [--json] <command> <subcommand> [flags]
//
// Команды:
//
//	meal       Управление meals
//	symptom    Управление symptoms
//	diagnosis  Управление diagnosis runs
//	admin      Администрирование (миграции, seed, create-admin)
//
// Конфигурация по умолчанию читается из ~/.bloaty.yaml (api_url, token)
// и переменных окружения BLOATY_API_URL, BLOATY_TOKEN.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/twm105/bloaty-mcbloatface-sub001/internal/cli"
)

// version задаётся через ldflags при сборке.
var version = "dev"

func main() {
	cfg, err := cli.LoadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}

	var apiURL, token string
	var jsonOutput bool

	rootCmd := &cobra.Command{
		Use:           "bloaty",
		Short:         "Bloaty CLI — food and symptom diary with AI diagnosis",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", cfg.APIURL, "API server URL")
	rootCmd.PersistentFlags().StringVar(&token, "token", cfg.Token, "Session token (empty for single-user mode)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")

	clientFn := func() *cli.Client { return cli.NewClient(apiURL, token) }
	outputFn := func() *cli.Output { return cli.NewOutput(jsonOutput) }

	rootCmd.AddCommand(
		cli.NewMealCmd(clientFn, outputFn),
		cli.NewSymptomCmd(clientFn, outputFn),
		cli.NewDiagnosisCmd(clientFn, outputFn),
		cli.NewAdminCmd(outputFn),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
