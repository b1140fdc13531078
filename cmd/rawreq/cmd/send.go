package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/assetnote/rawreq/internal/replay"
	"github.com/assetnote/rawreq/pkg/context"
	errors2 "github.com/assetnote/rawreq/pkg/errors"
	"github.com/assetnote/rawreq/pkg/http"
	"github.com/assetnote/rawreq/pkg/log"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	method   = "GET"
	headers  = []string{}
	data     = ""
	dataFile = ""
	saveFile = ""
	noColor  = false
)

// sendCmd represents the send command
var sendCmd = &cobra.Command{
	Use:   `send URL [-X METHOD] [-H "Key: Value"]... [-d BODY]`,
	Short: "send a single request with exactly the headers provided",
	Long: `send a single HTTP/1.1 request to URL.

Only the headers given with -H are sent, in the order given, with the case given.
No Host, Content-Length, User-Agent or Connection header is added for you, so
requests that a normal client would refuse to send can be sent as is.

Headers are split at the first colon. A single space after the colon is dropped,
anything else is kept as part of the value.

usage:
rawreq send http://localhost:8080/ -H "Host: localhost"
rawreq send http://localhost:8080/ -X POST -H "Host: localhost" -H "Content-Length: 4" -H "Transfer-Encoding: chunked" -d $'0\r\n\r\n'
rawreq send https://example.com/ -H "host: example.com" -H "Host: evil.com" -o json
rawreq send http://localhost:8080/ -H "Host: localhost" --save request.yaml
`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		hs, err := parseHeaderFlags(headers)
		if err != nil {
			return err
		}

		defn := http.RequestDefinition{
			Method:  method,
			URL:     args[0],
			Headers: hs,
		}
		switch {
		case data != "" && dataFile != "":
			return fmt.Errorf("only one of --data and --data-file may be set")
		case dataFile != "":
			if defn.RawBody, err = os.ReadFile(dataFile); err != nil {
				return fmt.Errorf("failed to read body: %w", err)
			}
		case data != "":
			defn.RawBody = []byte(data)
		}

		if saveFile != "" {
			if err := saveDefinition(saveFile, defn); err != nil {
				return err
			}
			log.Info().Str("file", saveFile).Msg("saved request definition")
		}

		e := replay.Entry{Name: defn.URL, Source: "cli", Defn: defn}
		printer := replay.NewPrinter(os.Stdout, log.GetLogFormat(), noColor)
		if err := replay.Send(context.Context(), e, requestOptions(), printer, replay.NewStats()); err != nil {
			errors2.PrintError(err, 0)
			return err
		}
		return nil
	},
}

// parseHeaderFlags converts "Key: Value" strings into raw headers, keeping order, case and duplicates
func parseHeaderFlags(in []string) (http.Headers, error) {
	ret := make(http.Headers, 0, len(in))
	for _, v := range in {
		idx := strings.IndexByte(v, ':')
		if idx <= 0 {
			return nil, fmt.Errorf("invalid header %q. expected \"Key: Value\"", v)
		}
		value := v[idx+1:]
		value = strings.TrimPrefix(value, " ")
		ret = append(ret, http.Header{Key: v[:idx], Value: value})
	}
	return ret, nil
}

func saveDefinition(name string, defn http.RequestDefinition) error {
	b, err := yaml.Marshal(replay.ToFile(name, defn))
	if err != nil {
		return fmt.Errorf("failed to encode request definition: %w", err)
	}
	if err := os.WriteFile(name, b, 0o644); err != nil {
		return fmt.Errorf("failed to save request definition: %w", err)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(sendCmd)

	sendCmd.Flags().StringVarP(&method, "method", "X", method, "request method. sent as is")
	sendCmd.Flags().StringArrayVarP(&headers, "header", "H", headers, "raw header in the form \"Key: Value\". can be repeated, order is preserved")
	sendCmd.Flags().StringVarP(&data, "data", "d", data, "raw request body")
	sendCmd.Flags().StringVar(&dataFile, "data-file", dataFile, "file containing the raw request body")
	sendCmd.Flags().StringVar(&saveFile, "save", saveFile, "also save the request as a replayable yaml definition")
	sendCmd.Flags().BoolVar(&noColor, "no-color", noColor, "disable colored output")
}
