package cmd

import (
	"crypto/tls"
	"fmt"
	"os"
	"strings"

	"github.com/assetnote/rawreq/pkg/http"
	"github.com/assetnote/rawreq/pkg/log"
	"github.com/spf13/cobra"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

// These global variables can be configured with the corresponding lowercase flag
var (
	Verbose string // Verbose defines the logging level, either trace, debug, info, error, fatal
	Output  string // Output defines the output format, either pretty, text, json
	Quiet   bool   // Quiet hides informational output such as the config file in use and replay stats

	cfgFile string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "rawreq",
	Short: "rawreq sends http requests exactly as you write them",
	Long: `rawreq sends HTTP/1.1 requests with exactly the headers you provide,
in the order and case you provide them, with nothing added.
The response is printed as it arrives: the head first, then the body in parts`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	cobra.CheckErr(rootCmd.Execute())
}

func init() {
	cobra.OnInitialize(initConfig)
	cobra.OnInitialize(initLogging)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.rawreq.yaml)")

	rootCmd.PersistentFlags().StringVarP(&Verbose, "verbose", "v", "info", "level of logging verbosity. can be error,info,debug,trace")
	rootCmd.PersistentFlags().StringVarP(&Output, "output", "o", "pretty", "output format. can be json,text,pretty")
	rootCmd.PersistentFlags().BoolVarP(&Quiet, "quiet", "q", false, "quiet mode. will mute unnecessary pretty text")

	rootCmd.PersistentFlags().Duration("timeout", 0, "timeout for the whole exchange. 0 waits forever")
	rootCmd.PersistentFlags().Duration("dial-timeout", 0, "timeout for establishing the connection")
	rootCmd.PersistentFlags().Int("max-header-bytes", http.DefaultMaxHeaderBytes, "maximum size of the response status line and headers")
	rootCmd.PersistentFlags().Int("read-buffer-size", http.DefaultReadBufferSize, "size of each network read. bounds the size of a body part")
	rootCmd.PersistentFlags().BoolP("insecure", "k", true, "skip tls certificate verification")

	viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	viper.BindPFlag("output", rootCmd.PersistentFlags().Lookup("output"))
	viper.BindPFlag("quiet", rootCmd.PersistentFlags().Lookup("quiet"))

	viper.BindPFlag("request.timeout", rootCmd.PersistentFlags().Lookup("timeout"))
	viper.BindPFlag("request.dial_timeout", rootCmd.PersistentFlags().Lookup("dial-timeout"))
	viper.BindPFlag("request.max_header_bytes", rootCmd.PersistentFlags().Lookup("max-header-bytes"))
	viper.BindPFlag("request.read_buffer_size", rootCmd.PersistentFlags().Lookup("read-buffer-size"))
	viper.BindPFlag("request.insecure", rootCmd.PersistentFlags().Lookup("insecure"))
}

func initLogging() {
	if err := log.SetFormat(viper.GetString("output")); err != nil {
		log.Fatal().Err(err).Msg("failed to initialize logging")
	}

	level := viper.GetString("verbose")
	if level != "" {
		if err := log.SetLevelString(level); err != nil {
			log.Fatal().Err(err).Msg("failed to initialize logging")
		}
	}
	log.Debug().Str("level", level).Str("format", viper.GetString("output")).Msg("custom log settings")
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := homedir.Dir()
		cobra.CheckErr(err)

		viper.AddConfigPath(home)
		viper.SetConfigName(".rawreq")
	}

	viper.SetEnvPrefix("rawreq")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil && !viper.GetBool("quiet") {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// requestOptions builds the transport options from the request.* config keys
func requestOptions() http.RequestOptions {
	opts := http.RequestOptions{
		Timeout:        viper.GetDuration("request.timeout"),
		DialTimeout:    viper.GetDuration("request.dial_timeout"),
		MaxHeaderBytes: viper.GetInt("request.max_header_bytes"),
		ReadBufferSize: viper.GetInt("request.read_buffer_size"),
	}
	if !viper.GetBool("request.insecure") {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	log.Debug().
		Dur("timeout", opts.Timeout).
		Dur("dial-timeout", opts.DialTimeout).
		Int("max-header-bytes", opts.MaxHeaderBytes).
		Bool("verify-tls", opts.TLSConfig != nil).
		Msg("request options")
	return opts
}
