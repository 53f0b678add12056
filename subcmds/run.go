// Copyright (c) 2023 BVK Chaitanya

package subcmds

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"net"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/bvk/mentionbot/cli"
	"github.com/bvk/mentionbot/ctxutil"
	"github.com/bvk/mentionbot/daemonize"
	"github.com/bvk/mentionbot/httputil"
	"github.com/bvk/mentionbot/server"
	"github.com/bvk/mentionbot/subcmds/cmdutil"
	"github.com/bvk/mentionbot/trader"
	"github.com/bvkgo/kv/kvhttp"
	"github.com/joho/godotenv"
	"github.com/nightlyone/lockfile"
	"github.com/shopspring/decimal"
	"github.com/visvasity/sglog"
)

const daemonizeEnvKey = "MENTIONBOT_DAEMONIZE"

type Run struct {
	cmdutil.ServerFlags

	background bool

	restart         bool
	shutdownTimeout time.Duration

	noPprof  bool
	noResume bool

	defaultMode     string
	fee             string
	offlineBalances bool

	secretsPath string
	dataDir     string
	logDir      string
}

func (c *Run) Command() (*flag.FlagSet, cli.CmdFunc) {
	fset := flag.NewFlagSet("run", flag.ContinueOnError)
	c.ServerFlags.SetFlags(fset)
	fset.BoolVar(&c.background, "background", false, "runs the daemon in background")
	fset.BoolVar(&c.restart, "restart", false, "when true, kills any old instance")
	fset.DurationVar(&c.shutdownTimeout, "shutdown-timeout", 30*time.Second, "max timeout for shutdown when restarting")
	fset.BoolVar(&c.noPprof, "no-pprof", false, "when true net/http/pprof handler is not registered")
	fset.BoolVar(&c.noResume, "no-resume", false, "when true mentions are not polled for active bots")
	fset.StringVar(&c.defaultMode, "default-mode", string(trader.Simulated), "execution mode for bots without one (live, simulated or live-fallback)")
	fset.StringVar(&c.fee, "fee", "", "SOL amount reserved for the network fee in every trade; 0 disables the reservation")
	fset.BoolVar(&c.offlineBalances, "offline-balances", false, "when true funds are checked against the stored wallet balances")
	fset.StringVar(&c.secretsPath, "secrets-file", "", "path to credentials file")
	fset.StringVar(&c.dataDir, "data-dir", "", "path to the data directory")
	fset.StringVar(&c.logDir, "log-dir", "logs", "path to the log directory relative to the data directory; empty value logs to stderr")
	return fset, cli.CmdFunc(c.run)
}

func (c *Run) Synopsis() string {
	return "Runs mentionbot in foreground or background"
}

func (c *Run) CommandHelp() string {
	return `

Command "run" starts the mentionbot service. The service polls the social
mentions of active bots, turns valid commands into Solana token swaps and
replies with the outcome.

SECRETS FILE

Users are expected to create a secrets file with the API keys in JSON format,
by default in $HOME/.mentionbot/secrets.json. An example is given below:

    {
        "twitter":{
            "bearer_token":"AAAA...",
            "user_access_token":"bXlV..."
        },
        "solana":{
            "rpc_url":"https://api.mainnet-beta.solana.com",
            "ws_url":"wss://api.mainnet-beta.solana.com"
        },
        "wallets":{
            "main":"4NMwxzm...base58 secret key..."
        }
    }

Values can be overridden with MENTIONBOT_* environment variables, which are
also loaded from the .env file in the data directory.

`
}

func (c *Run) run(ctx context.Context, args []string) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	dataDir, err := cmdutil.DataDir(c.dataDir)
	if err != nil {
		return err
	}

	envPath := filepath.Join(dataDir, ".env")
	if err := godotenv.Load(envPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("could not load environment file %q: %w", envPath, err)
	}

	if len(c.secretsPath) == 0 {
		c.secretsPath = filepath.Join(dataDir, "secrets.json")
	}
	secrets, err := server.SecretsFromFile(c.secretsPath)
	if err != nil {
		return err
	}
	if err := secrets.Check(); err != nil {
		return err
	}

	fee, noFee := decimal.Zero, false
	if len(c.fee) != 0 {
		v, err := decimal.NewFromString(c.fee)
		if err != nil {
			return fmt.Errorf("invalid fee value %q: %w", c.fee, err)
		}
		fee, noFee = v, v.IsZero()
	}

	if ip := net.ParseIP(c.IP); ip == nil {
		return fmt.Errorf("invalid ip address")
	}
	if c.Port <= 0 {
		return fmt.Errorf("invalid port number")
	}
	addr := &net.TCPAddr{
		IP:   net.ParseIP(c.IP),
		Port: c.Port,
	}

	// Health checker for the background process initialization. We need to
	// verify that responding http server is really our child and not an older
	// instance.
	check := func(ctx context.Context, child *os.Process) (bool, error) {
		client := http.Client{Timeout: time.Second}
		resp, err := client.Get(fmt.Sprintf("http://%s/pid", addr.String()))
		if err != nil {
			return true, err
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return true, fmt.Errorf("http status: %d", resp.StatusCode)
		}
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return true, err
		}
		if pid := string(data); pid != fmt.Sprintf("%d", child.Pid) {
			return c.restart, fmt.Errorf("is another instance already running? pid mismatch: want %d got %s", child.Pid, pid)
		}
		return false, nil
	}

	if c.background {
		if err := daemonize.Daemonize(ctx, daemonizeEnvKey, check); err != nil {
			return err
		}
	}

	if len(c.logDir) != 0 {
		logDir := c.logDir
		if !filepath.IsAbs(logDir) {
			logDir = filepath.Join(dataDir, logDir)
		}
		if err := os.MkdirAll(logDir, 0700); err != nil {
			return fmt.Errorf("could not create log directory %q: %w", logDir, err)
		}
		backend := sglog.NewBackend(&sglog.Options{
			LogDirs:        []string{logDir},
			LogFileMaxSize: 100 * 1024 * 1024,
		})
		defer backend.Close()
		slog.SetDefault(slog.New(backend.Handler()))
	}

	log.SetFlags(log.Flags() | log.Lmicroseconds)
	log.Printf("using data directory %s and secrets file %s", dataDir, c.secretsPath)

	lockPath := filepath.Join(dataDir, "mentionbot.lock")
	flock, err := lockfile.New(lockPath)
	if err != nil {
		return fmt.Errorf("could not create lock file %q: %w", lockPath, err)
	}
	if err := flock.TryLock(); err != nil {
		if !c.restart {
			return fmt.Errorf("could not get lock on file %q: %w", lockPath, err)
		}
		owner, err := flock.GetOwner()
		if err != nil {
			return fmt.Errorf("could not get current owner of the lock file: %w", err)
		}
		if err := owner.Signal(os.Interrupt); err == nil {
			log.Printf("waiting for the previous instance to shutdown")
			if err := ctxutil.RetryTimeout(ctx, time.Second, c.shutdownTimeout, flock.TryLock); err != nil {
				if err := owner.Signal(os.Kill); err != nil {
					return fmt.Errorf("could not kill current owner of the lock file: %w", err)
				}
				ctxutil.Sleep(ctx, time.Millisecond)
			}
		}
		if err := flock.TryLock(); err != nil {
			return fmt.Errorf("could not get lock on file %q after killing previous instance: %w", lockPath, err)
		}
	}
	defer flock.Unlock()

	// Start HTTP server.
	s, err := httputil.New(nil /* opts */)
	if err != nil {
		return err
	}
	defer s.Close()

	tcpServer, err := s.StartTCP(ctx, addr)
	if err != nil {
		return fmt.Errorf("could not start http server on %s: %w", addr, err)
	}
	defer s.Stop(tcpServer)

	if !c.noPprof {
		s.AddHandler("/debug/pprof/heap", pprof.Handler("heap"))
		s.AddHandler("/debug/pprof/goroutine", pprof.Handler("goroutine"))
		s.AddHandler("/debug/pprof/allocs", pprof.Handler("allocs"))
		s.AddHandler("/debug/pprof/block", pprof.Handler("block"))
		s.AddHandler("/debug/pprof/mutex", pprof.Handler("mutex"))
	}

	// Open the database.
	db, closeDB, err := cmdutil.OpenBadger(filepath.Join(dataDir, "db"))
	if err != nil {
		return err
	}
	defer closeDB()

	s.AddHandler("/db/", http.StripPrefix("/db", kvhttp.Handler(db)))

	// Start other services.
	sopts := &server.Options{
		DefaultMode:     c.defaultMode,
		Fee:             fee,
		NoFee:           noFee,
		OfflineBalances: c.offlineBalances,
		NoResume:        c.noResume,
	}
	bot, err := server.New(ctx, secrets, db, sopts)
	if err != nil {
		return err
	}
	defer bot.Close()

	// Add mentionbot api handlers
	botAPIs := bot.HandlerMap()
	for k, v := range botAPIs {
		s.AddHandler(k, v)
	}
	defer func() {
		for k := range botAPIs {
			s.RemoveHandler(k)
		}
	}()

	if err := bot.Start(ctx); err != nil {
		return err
	}
	defer func() {
		if err := bot.Stop(context.Background()); err != nil {
			log.Printf("could not stop all services (ignored): %v", err)
		}
	}()

	// Wait for the signals

	log.Printf("started mentionbot server at %s", addr)
	s.AddHandler("/pid", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		io.WriteString(w, fmt.Sprintf("%d", os.Getpid()))
	}))

	<-ctx.Done()
	log.Printf("mentionbot server is shutting down")
	return nil
}
