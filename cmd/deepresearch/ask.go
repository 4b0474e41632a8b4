package main

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/cultrix/deepresearch/config"
	"github.com/cultrix/deepresearch/internal/hub"
	"github.com/cultrix/deepresearch/internal/logsink"
	"github.com/cultrix/deepresearch/internal/runtime"
)

func askCMD() *cobra.Command {
	var modelID string
	var cfgPath string
	ask := &cobra.Command{
		Use:   "ask <question>",
		Short: "Answer one question using web browsing tools",
		Long:  "Example: deepresearch ask 'How many studio albums did Mercedes Sosa release before 2007?'",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgPath)
			if err != nil {
				return err
			}

			logger := log.New(log.Writer(), "[CLI] ", log.LstdFlags)
			if token := os.Getenv("HF_TOKEN"); token != "" {
				acct, err := hub.Login(cmd.Context(), token)
				if err != nil {
					return err
				}
				logger.Printf("logged into the hub as %s", acct.Name)
			} else {
				logger.Printf("HF_TOKEN not found, proceeding without hub authentication")
			}

			rt := runtime.New(cfg, logsink.New(cfg.General.LogBufferLines))
			defer rt.Close()
			handle, err := rt.GetOrCreate(cmd.Context(), modelID)
			if err != nil {
				return err
			}

			pool := runtime.NewPool(cfg.Runtime.PoolSize)
			defer pool.Shutdown()
			answer, err := pool.Submit(cmd.Context(), handle, args[0]).Wait()
			if err != nil {
				return err
			}
			fmt.Printf("Got this answer: %s\n", answer)
			return nil
		},
	}
	ask.Flags().StringVar(&modelID, "model-id", "", "model identifier (default from config, o1)")
	ask.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "config file (default is ./config)")
	return ask
}
