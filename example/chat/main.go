package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/ahmedkamals/colorize"
	"github.com/ahmedkamals/horizonredux"
	"github.com/ahmedkamals/horizonredux/natsource"
	natssrv "github.com/nats-io/nats-server/v2/server"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

type (
	eventLogger struct {
		logChan chan string
	}

	errorQueue struct {
		errChan chan error
	}

	options struct {
		natsURL  string
		embedded bool
		author   string
		clear    bool
		wait     time.Duration
		verbose  bool
	}
)

var (
	colorized = colorize.NewColorable(os.Stdout)
)

func newEventLogger(logChan chan string) horizonredux.Logger {
	return &eventLogger{
		logChan: logChan,
	}
}

func (e *eventLogger) Log(message string) {
	select {
	case e.logChan <- message:
	// Drop any log message that exceeds the log queue size.
	default:
	}
}

func newErrorQueue(errChan chan error) horizonredux.ErrorQueue {
	return &errorQueue{
		errChan: errChan,
	}
}

func (e *errorQueue) Report(err error) {
	select {
	case e.errChan <- err:
	// Drop any error message that exceeds the error queue size.
	default:
	}
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, colorized.Red(err.Error()))
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "chat [messages...]",
		Short: "Chat over NATS through a horizonredux store",
		Long: "Sends every argument as a chat message and prints the store state.\n" +
			"The connection is configured with HZ_NATS_* environment variables.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), opts, args)
		},
	}

	cmd.Flags().StringVar(&opts.natsURL, "nats-url", "", "NATS server URL, overrides HZ_NATS_URL")
	cmd.Flags().BoolVar(&opts.embedded, "embedded", false, "run an embedded NATS server")
	cmd.Flags().StringVarP(&opts.author, "author", "a", "guest", "author of the messages")
	cmd.Flags().BoolVar(&opts.clear, "clear", false, "clear the history after sending")
	cmd.Flags().DurationVar(&opts.wait, "wait", 500*time.Millisecond, "time to wait for the replies")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "print the horizonredux log")

	return cmd
}

func run(ctx context.Context, opts *options, args []string) error {
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := natsource.LoadConfig()
	if err != nil {
		return err
	}

	if opts.natsURL != "" {
		cfg.URL = opts.natsURL
	}

	if opts.embedded {
		server, err := startEmbeddedServer()
		if err != nil {
			return err
		}
		defer server.Shutdown()

		cfg.URL = server.ClientURL()
	}

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	if !opts.verbose {
		logger = logger.Level(zerolog.WarnLevel)
	}

	logChan := make(chan string, 10)
	errChan := make(chan error, 10)

	go monitorLogMessages(logChan, opts.verbose)
	go monitorErrors(errChan)

	source := natsource.New(cfg, logger)
	defer source.Close()

	hr, err := horizonredux.New(
		source,
		horizonredux.WithLogger(newEventLogger(logChan)),
		horizonredux.WithErrorQueue(newErrorQueue(errChan)),
		horizonredux.WithDisconnectAction(chatDisconnected),
	)
	if err != nil {
		return err
	}
	defer hr.Close()

	if err := registerActionTakers(hr, source); err != nil {
		return err
	}

	chat := newStore(chatReducer, loggingMiddleware, hr.CreateMiddleware())

	// Buffered until the connection is up.
	chat.Dispatch(horizonredux.NewAction(watchMessages, nil))
	fmt.Printf("%s, ready: %t\n", colorized.Yellow("Before connecting"), hr.IsReady())

	if err := source.Connect(ctx); err != nil {
		return err
	}
	fmt.Printf("%s, ready: %t\n", colorized.Green("After connecting"), hr.IsReady())

	service, err := startChatService(source)
	if err != nil {
		return err
	}
	defer service.stop()

	notices, err := subscribeNotices(source, chat.Dispatch)
	if err != nil {
		return err
	}
	defer func() {
		for _, subscription := range notices {
			subscription.Unsubscribe()
		}
	}()

	if err := source.Flush(opts.wait); err != nil {
		return err
	}

	for _, text := range args {
		chat.Dispatch(horizonredux.NewAction(addMessageRequest, chatDocument{
			Author: opts.author,
			Text:   text,
		}))
	}

	<-time.After(opts.wait)

	if opts.clear {
		chat.Dispatch(horizonredux.NewAction(clearMessages, nil))
		<-time.After(opts.wait)
	}

	printState(chat.snapshot())

	return nil
}

func startEmbeddedServer() (*natssrv.Server, error) {
	server, err := natssrv.NewServer(&natssrv.Options{Port: -1})
	if err != nil {
		return nil, err
	}

	go server.Start()
	if !server.ReadyForConnections(5 * time.Second) {
		server.Shutdown()
		return nil, fmt.Errorf("embedded nats server is not ready")
	}

	return server, nil
}

func printState(state chatState) {
	fmt.Printf("%s[%d], pending: %d\n", colorized.White("Messages"), len(state.Messages), state.Pending)
	for _, message := range state.Messages {
		fmt.Printf("  %s: %s\n", colorized.Green(message.Author), colorized.Orange(message.Text))
	}

	for _, notice := range state.Notices {
		fmt.Printf("%s %s\n", colorized.Cyan("notice"), notice)
	}

	for _, failure := range state.Errors {
		fmt.Printf("%s %s\n", colorized.Red("failed"), failure)
	}
}

func monitorLogMessages(logChan chan string, verbose bool) {
	for message := range logChan {
		if verbose {
			fmt.Println(colorized.Cyan(message))
		}
	}
}

func monitorErrors(errChan chan error) {
	for err := range errChan {
		if err != nil {
			fmt.Println(colorized.Red(err.Error()))
		}
	}
}
