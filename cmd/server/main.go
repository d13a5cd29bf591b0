/*
Copyright © 2024 Alexandre Pires

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in
all copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
THE SOFTWARE.
*/
package server

import (
	"os"

	"github.com/a13labs/radiocast/cmd"
	"github.com/a13labs/radiocast/pkg/logger"
	"github.com/a13labs/radiocast/pkg/streamserver"

	"github.com/spf13/cobra"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the radio stream proxy server",
	Long:  `Start the proxy server that rewrites the HLS playlist and serves the Icecast stream.`,
	Run: func(c *cobra.Command, args []string) {

		config, err := streamserver.LoadConfig(cmd.ConfigFile)
		if err != nil {
			c.PrintErrln(err)
			os.Exit(1)
		}

		logger.Init(config.LogFile, config.LogLevel)

		streamserver.Start(config)
	},
}

func init() {
	cmd.RootCmd.AddCommand(serverCmd)
}
