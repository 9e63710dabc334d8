// Command gitplugin 以无界面宿主运行 Git 插件，便于在编辑器外调试。
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/gocrud/gitplugin"
	"github.com/gocrud/gitplugin/config"
)

func main() {
	path := flag.String("config", "gitplugin.yaml", "path to the YAML configuration file")
	envFile := flag.String("env-file", ".env", "optional .env file")
	repo := flag.String("repo", "", "repository path, overrides repository.path")
	flag.Parse()

	loadOpts := []config.LoadOption{config.Optional(), config.WithDotEnv(*envFile)}
	if *repo != "" {
		loadOpts = append(loadOpts, config.WithOverrides(map[string]any{
			"repository": map[string]any{"path": *repo},
		}))
	}

	opts, err := gitplugin.Load(*path, loadOpts...)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if err := gitplugin.Run(opts...); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
