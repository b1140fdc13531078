/*
Package cmd provides all the commands for the rawreq binary.

The commands are separated by file, one file per command. Flags that affect every request
(timeouts, buffer sizes, tls verification) are persistent flags on the root command and are bound to
viper under the request. prefix, so they can also be set in $HOME/.rawreq.yaml

	request:
	  timeout: 10s
	  dial_timeout: 3s
	  max_header_bytes: 65536
	  insecure: false

or through the environment, e.g. RAWREQ_REQUEST_TIMEOUT=10s

Usage

	rawreq send http://localhost:14000/echo -H "Host: localhost" -H "host: other"
	rawreq replay requests.yaml --var host=localhost:14000
*/
package cmd
