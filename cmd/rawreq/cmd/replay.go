package cmd

import (
	"os"

	"github.com/assetnote/rawreq/internal/replay"
	"github.com/assetnote/rawreq/pkg/context"
	errors2 "github.com/assetnote/rawreq/pkg/errors"
	"github.com/assetnote/rawreq/pkg/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	vars        = []string{}
	repeat      = 1
	progressBar = true
	stopOnError = false
)

// replayCmd represents the replay command
var replayCmd = &cobra.Command{
	Use:   "replay FILE... [--var key=value]...",
	Short: "send the requests defined in one or more yaml files",
	Long: `replay loads request definitions from yaml (or json) files and sends them one after the other.

A file may contain several documents separated by ---. Each document has the form

  name: te-cl
  method: POST
  url: http://{{host}}/
  headers:
    - [Host, "{{host}}"]
    - [Content-Length, "4"]
    - [Transfer-Encoding, chunked]
  body: "0\r\n\r\n"

Use body_base64 instead of body for binary payloads. {{name}} placeholders in the url, headers and
body are substituted with the values given by --var. Use - to read definitions from stdin.

usage:
rawreq replay requests.yaml --var host=localhost:8080
rawreq replay a.yaml b.yaml --repeat 100 -o json
`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		vs, err := replay.ParseVars(vars)
		if err != nil {
			return err
		}

		entries, err := replay.LoadFiles(args, vs)
		if err != nil {
			errors2.PrintError(err, 0)
			if len(entries) == 0 {
				return err
			}
			log.Error().Int("valid", len(entries)).Msg("some request definitions are invalid. replaying the rest")
		}
		log.Info().Int("requests", len(entries)).Int("repeat", repeat).Msg("loaded request definitions")

		stats, err := replay.Run(context.Context(), entries,
			replay.RequestOptions(requestOptions()),
			replay.Repeat(repeat),
			replay.ProgressBarEnabled(progressBar && log.GetLogFormat() != log.JSON),
			replay.StopOnError(stopOnError),
			replay.Output(os.Stdout),
			replay.Format(log.GetLogFormat()),
			replay.NoColor(noColor),
		)
		if !viper.GetBool("quiet") {
			stats.Render(os.Stderr)
		}
		if err != nil {
			errors2.PrintError(err, 0)
			return err
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(replayCmd)

	replayCmd.Flags().StringArrayVar(&vars, "var", vars, "value for a {{name}} placeholder in the form name=value. can be repeated")
	replayCmd.Flags().IntVarP(&repeat, "repeat", "n", repeat, "number of times to send every request")
	replayCmd.Flags().BoolVar(&progressBar, "progress", progressBar, "show a progress bar when sending more than one request")
	replayCmd.Flags().BoolVar(&stopOnError, "stop-on-error", stopOnError, "stop at the first failed request")
	replayCmd.Flags().BoolVar(&noColor, "no-color", noColor, "disable colored output")
}
