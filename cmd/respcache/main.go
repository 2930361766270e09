package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/mindmate/respcache/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("respcache")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	root := &cobra.Command{
		Use:           "respcache",
		Short:         "TTL response cache for the MindMate API client",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := root.PersistentFlags()
	flags.String("config", "", "path to a YAML config file (env RESPCACHE_CONFIG)")
	flags.String("log-level", "", "override log.level (env RESPCACHE_LOG_LEVEL)")
	flags.String("debug-addr", "", "override debug.addr (env RESPCACHE_DEBUG_ADDR)")
	flags.String("base-url", "", "override client.base_url (env RESPCACHE_CLIENT_BASE_URL)")

	_ = v.BindPFlag("config", flags.Lookup("config"))
	_ = v.BindPFlag("log.level", flags.Lookup("log-level"))
	_ = v.BindPFlag("debug.addr", flags.Lookup("debug-addr"))
	_ = v.BindPFlag("client.base_url", flags.Lookup("base-url"))

	root.AddCommand(newDemoCmd(v), newServeCmd(v))
	return root
}

/*
loadConfig resolves configuration in order:
1. built-in defaults
2. the YAML file named by --config / RESPCACHE_CONFIG
3. individual flag or RESPCACHE_* overrides
*/
func loadConfig(v *viper.Viper) (*config.Config, error) {
	cfg := config.Default()
	if path := v.GetString("config"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if s := v.GetString("log.level"); s != "" {
		cfg.Log.Level = s
	}
	if s := v.GetString("debug.addr"); s != "" {
		cfg.Debug.Addr = s
	}
	if s := v.GetString("client.base_url"); s != "" {
		cfg.Client.BaseURL = s
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
