package config

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// RegisterFlags registers the global flags on the root command
func RegisterFlags(cmd *cobra.Command) {
	if cmd == nil {
		return
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")
	cmd.PersistentFlags().BoolP("quiet", "q", false, "Suppress all output except errors")
	cmd.PersistentFlags().Bool("json", false, "Log in JSON format")
	cmd.PersistentFlags().String("proxy", "", "HTTP/SOCKS5 proxies, comma separated and rotated (e.g. http://localhost:8080)")
	cmd.PersistentFlags().Duration("timeout", DefaultHTTPTimeout, "Per page request timeout")
	cmd.PersistentFlags().String("user-agent", DefaultUserAgent, "User agent string")
	cmd.PersistentFlags().String("config", "", "Path to configuration file (optional)")
}

// RegisterCrawlFlags registers the flags that shape a single crawl
func RegisterCrawlFlags(cmd *cobra.Command) {
	if cmd == nil {
		return
	}

	cmd.Flags().IntP("limit", "l", DefaultLimit, "Maximum number of pages to crawl")
	cmd.Flags().StringP("output", "o", DefaultOutputDir, "Directory for Markdown files and the zip archive")
	cmd.Flags().StringP("mode", "m", DefaultMode, "Fetch mode: auto, static or spa")
	cmd.Flags().StringP("selector", "s", "", "CSS selector for the content to convert, e.g. 'main, article' (default: whole page)")
	cmd.Flags().StringArrayP("header", "H", nil, "Custom request header 'Key: Value' (repeatable)")
	cmd.Flags().Bool("clean", false, "Remove the Markdown directory after zipping")
	cmd.Flags().Bool("respect-robots", false, "Skip pages disallowed by robots.txt")
	cmd.Flags().Bool("no-progress", false, "Hide the progress bar")
}

// flagSets returns every flag set whose values feed the config
func flagSets(cmd *cobra.Command) []*pflag.FlagSet {
	if cmd == nil {
		return nil
	}
	return []*pflag.FlagSet{cmd.Flags(), cmd.PersistentFlags(), cmd.InheritedFlags()}
}
