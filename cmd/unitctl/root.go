package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/bigkaa/unit-tracker/internal/client"
	"github.com/bigkaa/unit-tracker/internal/i18n"
)

// Ключи настроек (флаги, UNITCTL_* и config.yaml).
const (
	keyServer  = "server"
	keyToken   = "token"
	keyOutput  = "output"
	keyLang    = "lang"
	keyTimeout = "timeout"
	keyVerbose = "verbose"
)

// Форматы вывода.
const (
	outputText = "text"
	outputJSON = "json"
	outputYAML = "yaml"
)

const defaultServer = "http://localhost:8080"

// settings — итоговые настройки после слияния флагов, окружения и файла.
type settings struct {
	Server  string
	Token   string
	Output  string
	Lang    string
	Timeout time.Duration
	Verbose bool
}

// RootCommand — корневая команда unitctl и общие зависимости подкоманд.
type RootCommand struct {
	v       *viper.Viper
	cfgFile string
	out     io.Writer
	errOut  io.Writer

	settings settings
	logger   *slog.Logger
	api      *client.Client
}

// NewRootCommand создаёт корневую команду с собственным экземпляром viper.
func NewRootCommand(out, errOut io.Writer) *RootCommand {
	return &RootCommand{
		v:      viper.New(),
		out:    out,
		errOut: errOut,
		settings: settings{
			Lang: i18n.LangEnglish,
		},
	}
}

// Execute выполняет unitctl с аргументами args и возвращает код выхода.
func Execute(ctx context.Context, args []string, out, errOut io.Writer) int {
	rc := NewRootCommand(out, errOut)
	cmd := rc.GetCobraCommand()
	cmd.SetArgs(args)
	cmd.SetOut(out)
	cmd.SetErr(errOut)

	if err := cmd.ExecuteContext(ctx); err != nil {
		rc.printError(err)
		return 1
	}
	return 0
}

// GetCobraCommand возвращает корневую cobra-команду.
func (c *RootCommand) GetCobraCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "unitctl",
		Short: "Консольный клиент unit-tracker",
		Long: `unitctl работает с API unit-tracker: просмотр и фильтрация подразделений,
поиск, статистика по этапам workflow, создание, изменение и удаление записей.

Настройки читаются из флагов, переменных UNITCTL_* и ~/.config/unitctl/config.yaml.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return c.setup()
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&c.cfgFile, "config", "", "Путь к файлу настроек (YAML)")
	pf.String(keyServer, defaultServer, "Адрес API unit-tracker")
	pf.String(keyToken, "", "Bearer-токен (JWT)")
	pf.StringP(keyOutput, "o", outputText, "Формат вывода: text, json, yaml")
	pf.String(keyLang, "", "Язык подписей: en, uk (по умолчанию из LANG)")
	pf.Duration(keyTimeout, 30*time.Second, "Таймаут HTTP-запроса")
	pf.BoolP(keyVerbose, "v", false, "Подробное логирование")

	for _, key := range []string{keyServer, keyToken, keyOutput, keyLang, keyTimeout, keyVerbose} {
		_ = c.v.BindPFlag(key, pf.Lookup(key))
	}

	_ = rootCmd.RegisterFlagCompletionFunc(keyOutput, func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{outputText, outputJSON, outputYAML}, cobra.ShellCompDirectiveNoFileComp
	})

	rootCmd.AddCommand(
		(&ListCommand{root: c}).GetCobraCommand(),
		(&GetCommand{root: c}).GetCobraCommand(),
		(&CreateCommand{root: c}).GetCobraCommand(),
		(&UpdateCommand{root: c}).GetCobraCommand(),
		(&DeleteCommand{root: c}).GetCobraCommand(),
		(&SearchCommand{root: c}).GetCobraCommand(),
		(&StatsCommand{root: c}).GetCobraCommand(),
		(&StatusesCommand{root: c}).GetCobraCommand(),
		(&SeedCommand{root: c}).GetCobraCommand(),
	)

	return rootCmd
}

// setup читает настройки и создаёт логгер и API-клиент.
func (c *RootCommand) setup() error {
	c.v.SetEnvPrefix("UNITCTL")
	c.v.AutomaticEnv()

	if c.cfgFile != "" {
		c.v.SetConfigFile(c.cfgFile)
	} else {
		c.v.SetConfigName("config")
		c.v.SetConfigType("yaml")
		c.v.AddConfigPath(os.ExpandEnv("$HOME/.config/unitctl"))
	}
	if err := c.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if c.cfgFile != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("чтение настроек: %w", err)
		}
	}

	c.settings = settings{
		Server:  strings.TrimRight(c.v.GetString(keyServer), "/"),
		Token:   c.v.GetString(keyToken),
		Output:  strings.ToLower(c.v.GetString(keyOutput)),
		Lang:    resolveLang(c.v.GetString(keyLang), os.Getenv("LANG")),
		Timeout: c.v.GetDuration(keyTimeout),
		Verbose: c.v.GetBool(keyVerbose),
	}

	switch c.settings.Output {
	case outputText, outputJSON, outputYAML:
	case "yml":
		c.settings.Output = outputYAML
	default:
		return fmt.Errorf("неизвестный формат вывода %q (text, json, yaml)", c.settings.Output)
	}

	level := slog.LevelWarn
	if c.settings.Verbose {
		level = slog.LevelDebug
	}
	c.logger = slog.New(slog.NewTextHandler(c.errOut, &slog.HandlerOptions{Level: level}))
	c.logger.Debug("Настройки загружены",
		slog.String("server", c.settings.Server),
		slog.String("config", c.v.ConfigFileUsed()),
		slog.String("lang", c.settings.Lang),
	)

	c.api = client.New(c.settings.Server, c.settings.Token, c.settings.Lang, c.settings.Timeout, c.logger)
	return nil
}

// resolveLang выбирает язык: явный → из LANG (uk_UA.UTF-8) → en.
func resolveLang(explicit, env string) string {
	if explicit != "" {
		if i18n.IsSupported(explicit) {
			return explicit
		}
		return i18n.MatchLanguage(explicit)
	}
	if env == "" {
		return i18n.LangEnglish
	}
	tag, _, _ := strings.Cut(env, ".")
	return i18n.MatchLanguage(strings.ReplaceAll(tag, "_", "-"))
}

// t — подпись на языке настроек.
func (c *RootCommand) t(key string) string {
	return i18n.Default().Translate(c.settings.Lang, key)
}

// tf — подпись с подстановкой аргументов.
func (c *RootCommand) tf(key string, args ...any) string {
	return i18n.Default().Translatef(c.settings.Lang, key, args...)
}

// bannerError связывает ошибку с ключом локализованного баннера.
type bannerError struct {
	key string
	err error
}

func (e *bannerError) Error() string { return e.err.Error() }
func (e *bannerError) Unwrap() error { return e.err }

// withBanner помечает ошибку операции ключом баннера (error.load, error.create...).
func withBanner(key string, err error) error {
	if err == nil {
		return nil
	}
	return &bannerError{key: key, err: err}
}

// printError выводит локализованный баннер и подробность ошибки.
// Ответ API показывается сообщением сервера, остальное — текстом ошибки.
func (c *RootCommand) printError(err error) {
	key := "error.generic"
	var be *bannerError
	if errors.As(err, &be) {
		key = be.key
	}

	detail := err.Error()
	var apiErr *client.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		detail = apiErr.Message
	}

	banner := color.New(color.FgRed, color.Bold)
	_, _ = banner.Fprintln(c.errOut, c.t(key))
	_, _ = fmt.Fprintf(c.errOut, "  %s\n", detail)
}
