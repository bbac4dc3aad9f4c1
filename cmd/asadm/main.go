// asadm is an administrative client for a distributed key-value cluster:
// it discovers membership from one or more seed hosts, fans queries out
// across every node in parallel, and renders the aggregated result.
//
// Usage:
//
//	asadm -h 127.0.0.1:3000                  # interactive shell
//	asadm -h 127.0.0.1:3000 show nodes        # one-shot verb
//	asadm -h seed1,seed2 -U admin -P secret health
package main

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/aerocluster/asadm/pkg/cluster"
	"github.com/aerocluster/asadm/pkg/config"
	"github.com/aerocluster/asadm/pkg/node"
	"github.com/aerocluster/asadm/pkg/shell"
	"github.com/aerocluster/asadm/pkg/util"
)

// App holds flag state shared across every command, populated from the
// config file and then overridden by explicit CLI flags, and the
// resulting cluster handle built once in PersistentPreRunE.
type App struct {
	seedHosts       []string
	port            int
	user            string
	password        string
	credentialsFile string

	tlsEnable bool
	tlsName   string
	tlsCAFile string

	useServicesAlumni bool
	useServicesAlt    bool
	onlyConnectSeed   bool

	timeoutSeconds int
	noColor        bool
	verbose        bool

	sshUser     string
	sshPassword string
	sshPort     int

	cluster *cluster.Cluster
	shell   *shell.Shell
}

var app = &App{}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "asadm",
	Short:         "Administrative client for a distributed key-value cluster",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "help" || cmd.Name() == "completion" {
			return nil
		}

		cfg, err := config.Load()
		if err != nil {
			util.Logger.Warnf("could not load config: %v", err)
			cfg = &config.Config{}
		}
		applyConfigDefaults(cfg)

		level := "warn"
		if app.verbose {
			level = "debug"
		}
		if err := util.SetLogLevel(level); err != nil {
			util.Logger.Warnf("invalid log level %q: %v", level, err)
		}

		if len(app.seedHosts) == 0 {
			return fmt.Errorf("%w: at least one seed host required (-h)", util.ErrConfigError)
		}

		credentials, err := loadCredentials()
		if err != nil {
			return fmt.Errorf("%w: %v", util.ErrConfigError, err)
		}

		tlsConfig, err := buildTLSConfig()
		if err != nil {
			return fmt.Errorf("%w: %v", util.ErrConfigError, err)
		}

		app.cluster = cluster.New(cluster.Config{
			SeedAddrs:          app.seedHosts,
			Port:               app.port,
			Credentials:        credentials,
			DefaultCredentials: defaultCredentials(),
			TLSConfig:          tlsConfig,
			TLSName:            app.tlsName,
			Timeout:            time.Duration(app.timeoutSeconds) * time.Second,
			UseServicesAlumni:  app.useServicesAlumni,
			UseServicesAlt:     app.useServicesAlt,
			OnlyConnectSeed:    app.onlyConnectSeed,
		})

		if err := app.cluster.Discover(cmd.Context()); err != nil {
			return fmt.Errorf("discovering cluster: %w", err)
		}
		app.shell = shell.New(app.cluster, os.Stdout)
		app.shell.SSHUser = app.sshUser
		app.shell.SSHPassword = app.sshPassword
		app.shell.SSHPort = app.sshPort

		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if app.cluster != nil {
			app.cluster.Close()
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return app.shell.Run(cmd.Context())
	},
}

// applyConfigDefaults fills unset App fields from cfg — CLI flags that
// were explicitly given always win, since cobra has already parsed them
// by the time PersistentPreRunE runs.
func applyConfigDefaults(cfg *config.Config) {
	if len(app.seedHosts) == 0 {
		app.seedHosts = cfg.SeedHosts
	}
	if app.port == 0 {
		app.port = cfg.GetPort()
	}
	if app.user == "" {
		app.user = cfg.User
	}
	if app.password == "" {
		app.password = cfg.Password
	}
	if app.credentialsFile == "" {
		app.credentialsFile = cfg.CredentialsFile
	}
	if !app.tlsEnable {
		app.tlsEnable = cfg.TLSEnable
	}
	if app.tlsName == "" {
		app.tlsName = cfg.TLSName
	}
	if app.tlsCAFile == "" {
		app.tlsCAFile = cfg.TLSCAFile
	}
	if app.timeoutSeconds == 0 {
		app.timeoutSeconds = cfg.GetTimeoutSeconds()
	}
	if !app.useServicesAlumni {
		app.useServicesAlumni = cfg.UseServicesAlumni
	}
	if !app.useServicesAlt {
		app.useServicesAlt = cfg.UseServicesAlt
	}
	if !app.onlyConnectSeed {
		app.onlyConnectSeed = cfg.OnlyConnectSeed
	}
	if app.sshUser == "" {
		app.sshUser = cfg.SSHUser
	}
	if app.sshPassword == "" {
		app.sshPassword = cfg.SSHPassword
	}
	if app.sshPort == 0 {
		app.sshPort = cfg.SSHPort
	}
}

func loadCredentials() (map[string]node.Credentials, error) {
	if app.credentialsFile == "" {
		return nil, nil
	}
	hostCreds, err := config.LoadCredentialsFile(app.credentialsFile)
	if err != nil {
		return nil, err
	}
	return hostCreds, nil
}

func defaultCredentials() *node.Credentials {
	if app.user == "" {
		return nil
	}
	return &node.Credentials{User: app.user, Password: app.password}
}

func buildTLSConfig() (*tls.Config, error) {
	if !app.tlsEnable {
		return nil, nil
	}

	cfg := &tls.Config{}
	if app.tlsCAFile != "" {
		pem, err := os.ReadFile(app.tlsCAFile)
		if err != nil {
			return nil, fmt.Errorf("reading CA file: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pem) {
			return nil, fmt.Errorf("no certificates found in %s", app.tlsCAFile)
		}
		cfg.RootCAs = pool
	}
	return cfg, nil
}

func init() {
	rootCmd.PersistentFlags().StringSliceVarP(&app.seedHosts, "seed-hosts", "h", nil, "comma-separated seed hosts (host[:port])")
	rootCmd.PersistentFlags().IntVar(&app.port, "port", 0, "default port for seed hosts without one")
	rootCmd.PersistentFlags().StringVarP(&app.user, "user", "U", "", "username")
	rootCmd.PersistentFlags().StringVarP(&app.password, "password", "P", "", "password")
	rootCmd.PersistentFlags().StringVar(&app.credentialsFile, "credentials-file", "", "multi-host credentials file")

	rootCmd.PersistentFlags().BoolVar(&app.tlsEnable, "tls-enable", false, "enable TLS")
	rootCmd.PersistentFlags().StringVar(&app.tlsName, "tls-name", "", "TLS name expected from the server certificate")
	rootCmd.PersistentFlags().StringVar(&app.tlsCAFile, "tls-cafile", "", "CA certificate bundle")

	rootCmd.PersistentFlags().BoolVar(&app.useServicesAlumni, "services-alumni", false, "use alumni services view for discovery")
	rootCmd.PersistentFlags().BoolVar(&app.useServicesAlt, "services-alternate", false, "use alternate services view for discovery")
	rootCmd.PersistentFlags().BoolVar(&app.onlyConnectSeed, "only-connect-seed", false, "never discover beyond the seed hosts")

	rootCmd.PersistentFlags().IntVar(&app.timeoutSeconds, "timeout", 0, "per-operation timeout in seconds")
	rootCmd.PersistentFlags().BoolVar(&app.noColor, "no-color", false, "accepted but not applied: table output always uses ANSI color")
	rootCmd.PersistentFlags().BoolVarP(&app.verbose, "verbose", "v", false, "verbose logging")

	rootCmd.PersistentFlags().StringVar(&app.sshUser, "ssh-user", "", "SSH user for remote system-stats collection (collectinfo)")
	rootCmd.PersistentFlags().StringVar(&app.sshPassword, "ssh-password", "", "SSH password for remote system-stats collection")
	rootCmd.PersistentFlags().IntVar(&app.sshPort, "ssh-port", 0, "SSH port for remote system-stats collection (default 22)")

	rootCmd.AddCommand(showCmd, infoCmd, asinfoCmd, collectinfoCmd, healthCmd, summaryCmd)
}

// dispatch runs one verb command through the shell and reports any error
// back to cobra, keeping every cmd_verbs.go RunE a one-liner.
func dispatch(cmd *cobra.Command, args []string) error {
	verb := strings.TrimPrefix(cmd.Use, " ")
	fields := strings.Fields(verb)
	return app.shell.Dispatch(cmd.Context(), append(fields[:1], args...))
}
