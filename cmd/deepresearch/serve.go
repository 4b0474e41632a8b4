package main

import (
	"github.com/spf13/cobra"

	"github.com/cultrix/deepresearch/config"
	"github.com/cultrix/deepresearch/internal/logsink"
	"github.com/cultrix/deepresearch/internal/runtime"
	srv "github.com/cultrix/deepresearch/internal/server"
)

func serveCMD() *cobra.Command {
	var cfgPath string
	var addr string
	serve := &cobra.Command{
		Use:   "serve",
		Short: "Run the browser UI",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgPath)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Address = addr
			}

			rt := runtime.New(cfg, logsink.New(cfg.General.LogBufferLines))
			defer rt.Close()
			pool := runtime.NewPool(cfg.Runtime.PoolSize)
			defer pool.Shutdown()

			return srv.New(cfg, rt, pool).Run()
		},
	}
	serve.Flags().StringVar(&addr, "addr", "", "listen address (default from config, :8080)")
	serve.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "config file (default is ./config)")
	return serve
}
