package cli

import (
	"github.com/spf13/viper"
)

// Config — конфигурация CLI.
//
// Источники в порядке приоритета: флаги команды, переменные окружения
// (BLOATY_API_URL, BLOATY_TOKEN), файл ~/.bloaty.yaml.
type Config struct {
	// APIURL — адрес API сервера.
	APIURL string

	// Token — сессионный токен. Пустой — single-user режим.
	Token string

	// JSON — выводить данные в JSON вместо таблиц.
	JSON bool
}

// LoadConfig читает конфигурацию из файла и окружения.
// Отсутствие конфиг-файла не является ошибкой.
func LoadConfig() (*Config, error) {
	v := viper.New()
	v.SetConfigName(".bloaty")
	v.SetConfigType("yaml")
	v.AddConfigPath("$HOME")
	v.AddConfigPath(".")

	v.SetEnvPrefix("BLOATY")
	v.AutomaticEnv()

	v.SetDefault("api_url", "http://localhost:8080")
	v.SetDefault("token", "")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	return &Config{
		APIURL: v.GetString("api_url"),
		Token:  v.GetString("token"),
	}, nil
}
