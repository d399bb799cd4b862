package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/DevN0mad/cbremote/internal/services"
)

const defaultServiceURL = "http://localhost:8080/cb/remote-api"

// app общее состояние команд: настройки, потоки вывода и лог.
type app struct {
	v            *viper.Viper
	out          io.Writer
	errOut       io.Writer
	logger       *slog.Logger
	readPassword func() (string, error)
	now          func() time.Time
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cmd := NewRootCmd(os.Stdout, os.Stderr)
	if err := cmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

// NewRootCmd собирает дерево команд cb. Прогресс печатается в out,
// лог и ошибки в errOut.
func NewRootCmd(out, errOut io.Writer) *cobra.Command {
	a := &app{
		v:            viper.New(),
		out:          out,
		errOut:       errOut,
		logger:       slog.New(slog.NewTextHandler(errOut, nil)),
		readPassword: terminalPassword(errOut),
		now:          time.Now,
	}

	var configFile string
	var debug bool

	cmd := &cobra.Command{
		Use:          "cb",
		Short:        "CodeBeamer remote API client",
		SilenceUsage: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			level := slog.LevelWarn
			if debug {
				level = slog.LevelDebug
			}
			a.logger = slog.New(slog.NewTextHandler(a.errOut, &slog.HandlerOptions{Level: level}))

			if configFile != "" {
				a.v.SetConfigFile(configFile)
				if err := a.v.ReadInConfig(); err != nil {
					return fmt.Errorf("read config %q: %w", configFile, err)
				}
			}
			return nil
		},
	}
	cmd.SetOut(out)
	cmd.SetErr(errOut)

	f := cmd.PersistentFlags()
	f.String("url", defaultServiceURL, "CodeBeamer remote API URL")
	f.String("login", "", "account name")
	f.String("password", "", "account password (prompted on a terminal when empty)")
	f.Int("timeout", 30, "timeout of a single remote call in seconds")
	f.Bool("insecure", false, "skip TLS certificate verification")
	f.StringVar(&configFile, "config", "", "YAML file with connection settings")
	f.BoolVar(&debug, "debug", false, "verbose logging to stderr")

	_ = a.v.BindPFlag("service_url", f.Lookup("url"))
	_ = a.v.BindPFlag("login", f.Lookup("login"))
	_ = a.v.BindPFlag("password", f.Lookup("password"))
	_ = a.v.BindPFlag("timeout_seconds", f.Lookup("timeout"))
	_ = a.v.BindPFlag("insecure_skip_verify", f.Lookup("insecure"))
	a.v.SetEnvPrefix("CB")
	a.v.AutomaticEnv()

	cmd.AddCommand(
		a.downloadCmd(),
		a.uploadCmd(),
		a.exportCmd(),
		a.importCmd(),
		a.profileCmd(),
		a.itemCmd(),
		a.wikiCmd(),
		a.associationsCmd(),
	)
	return cmd
}

// codeBeamerOpts собирает параметры подключения из флагов, окружения и файла.
func (a *app) codeBeamerOpts() (services.CodeBeamerOpts, error) {
	var opts services.CodeBeamerOpts
	if err := a.v.Unmarshal(&opts); err != nil {
		return opts, fmt.Errorf("read connection settings: %w", err)
	}

	if opts.Password == "" && a.readPassword != nil {
		password, err := a.readPassword()
		if err != nil {
			return opts, fmt.Errorf("read password: %w", err)
		}
		opts.Password = password
	}

	if err := validator.New().Struct(&opts); err != nil {
		return opts, fmt.Errorf("invalid connection settings: %w", err)
	}
	return opts, nil
}

// terminalPassword спрашивает пароль, только если stdin это терминал.
func terminalPassword(prompt io.Writer) func() (string, error) {
	return func() (string, error) {
		fd := int(os.Stdin.Fd())
		if !term.IsTerminal(fd) {
			return "", nil
		}
		fmt.Fprint(prompt, "Password: ")
		b, err := term.ReadPassword(fd)
		fmt.Fprintln(prompt)
		if err != nil {
			return "", err
		}
		return string(b), nil
	}
}

// withSession открывает сессию, выполняет fn и закрывает сессию, печатая
// каждый шаг. "Done" печатается только при успехе.
func (a *app) withSession(cmd *cobra.Command, fn func(ctx context.Context, sess *services.Session) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	opts, err := a.codeBeamerOpts()
	if err != nil {
		return err
	}

	svc, err := services.NewCodeBeamerService(opts, a.logger)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Connecting to CodeBeamer web service at %s...\n", svc.ServiceURL())
	fmt.Fprintln(a.out, "Signing in...")
	sess, err := svc.Connect(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Signed in to %s\n", sess.Banner())

	runErr := fn(ctx, sess)

	fmt.Fprintln(a.out, "Signing out...")
	if err := sess.Close(context.WithoutCancel(ctx)); err != nil {
		a.logger.Warn("Failed to sign out", "error", err)
	}

	if runErr != nil {
		return runErr
	}
	fmt.Fprintln(a.out, "Done")
	return nil
}
