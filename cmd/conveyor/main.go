// Conveyor CLI — инструмент командной строки для работы с каналами:
// публикация сообщений и просмотр очередей через AMQP.
//
// Использование:
//
//	conveyor [--amqp-url URL] [--json] <command> [flags]
//
// Команды:
//
//	send  Публикация сообщения в канал
//	peek  Неблокирующее чтение сообщений из каналов
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/shaiso/Conveyor/internal/channels"
	"github.com/shaiso/Conveyor/internal/cli"
)

// version задаётся через ldflags при сборке.
var version = "dev"

func main() {
	var amqpURL string
	var jsonOutput bool

	rootCmd := &cobra.Command{
		Use:           "conveyor",
		Short:         "Conveyor CLI — channel messaging tool",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&amqpURL, "amqp-url", channels.DefaultURL(), "RabbitMQ connection URL")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")

	// CLI не нуждается в структурированных логах, ошибки уходят в stderr.
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	layerFn := func() (channels.Layer, error) {
		conn, err := channels.NewConnection(amqpURL, logger)
		if err != nil {
			return nil, fmt.Errorf("connect to RabbitMQ: %w", err)
		}
		return channels.NewAMQPLayer(conn, logger, channels.AMQPConfig{}), nil
	}
	outputFn := func() *cli.Output { return cli.NewOutput(jsonOutput) }

	rootCmd.AddCommand(
		cli.NewSendCmd(layerFn, outputFn),
		cli.NewPeekCmd(layerFn, outputFn),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
