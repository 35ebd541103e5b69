package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/partyplaylist/backend/src/app"
	"github.com/partyplaylist/backend/src/domain"
	"github.com/partyplaylist/backend/src/service"
	"github.com/spf13/cobra"
)

func newInitCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Rebuild the weekly schedule starting this week",
		RunE: func(cmd *cobra.Command, args []string) error {
			runCtx := ctx.withLogger(cmd.Context())
			application, err := ctx.ensureApplication(runCtx)
			if err != nil {
				return err
			}

			scheduled, err := application.ChallengeService.InitializeSchedule(runCtx)
			if err != nil {
				return err
			}
			if !scheduled {
				fmt.Fprintln(cmd.OutOrStdout(), "Nothing to schedule: no challenges exist")
				return nil
			}

			challenges, err := application.ChallengeService.ListChallenges(runCtx)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderChallenges(challenges, time.Now().UTC()))
			return nil
		},
	}
}

func newRefreshCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Run one check-and-correct rotation tick now",
		RunE: func(cmd *cobra.Command, args []string) error {
			runCtx := ctx.withLogger(cmd.Context())
			application, err := ctx.ensureApplication(runCtx)
			if err != nil {
				return err
			}

			challenge, err := application.ChallengeService.ForceRefresh(runCtx)
			if err != nil {
				return err
			}
			printCurrent(cmd, challenge)
			return nil
		},
	}
}

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show every challenge and its window",
		RunE: func(cmd *cobra.Command, args []string) error {
			runCtx := ctx.withLogger(cmd.Context())
			application, err := ctx.ensureApplication(runCtx)
			if err != nil {
				return err
			}

			challenges, err := application.ChallengeService.ListChallenges(runCtx)
			if err != nil {
				return err
			}
			if len(challenges) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No challenges")
				return nil
			}

			active := 0
			for _, challenge := range challenges {
				if challenge.IsActive {
					active++
				}
			}

			fmt.Fprintln(cmd.OutOrStdout(), renderChallenges(challenges, time.Now().UTC()))
			if active != 1 {
				fmt.Fprintf(cmd.OutOrStdout(), "warning: %d challenges flagged active, run `challengectl refresh`\n", active)
			}
			return nil
		},
	}
}

func newUpcomingCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "upcoming",
		Short: "List the next challenges in the rotation",
		RunE: func(cmd *cobra.Command, args []string) error {
			runCtx := ctx.withLogger(cmd.Context())
			application, err := ctx.ensureApplication(runCtx)
			if err != nil {
				return err
			}

			challenges, err := application.ChallengeService.GetUpcomingChallenges(runCtx, limit)
			if err != nil {
				return err
			}
			if len(challenges) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No upcoming challenges")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderChallenges(challenges, time.Now().UTC()))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", service.DefaultUpcomingLimit, "Number of challenges to show")
	return cmd
}

func newWatchCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Stream rotation events published by running instances",
		RunE: func(cmd *cobra.Command, args []string) error {
			runCtx := ctx.withLogger(cmd.Context())
			application, err := ctx.ensureApplication(runCtx)
			if err != nil {
				return err
			}
			if application.RotationCache == nil {
				return errors.New("REDIS_URL not set, rotation events are not published")
			}

			events, err := application.RotationCache.Subscribe(runCtx)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Listening on %s\n", application.RotationCache.EventChannel())
			for event := range events {
				fmt.Fprintln(cmd.OutOrStdout(), formatEvent(event))
			}
			return runCtx.Err()
		},
	}
}

func newMigrateCommand(ctx *commandContext) *cobra.Command {
	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the challenges schema",
	}

	migrateCmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if err := app.MigrationUp(*config.DSN, *config.MigrationPath); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Migrations applied")
			return nil
		},
	})

	migrateCmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Roll back all migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if err := app.MigrationDown(*config.DSN, *config.MigrationPath); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Migrations rolled back")
			return nil
		},
	})

	migrateCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the applied schema version",
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			version, dirty, err := app.MigrationVersion(*config.DSN, *config.MigrationPath)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "version %d (dirty: %t)\n", version, dirty)
			return nil
		},
	})

	return migrateCmd
}

func printCurrent(cmd *cobra.Command, challenge *domain.Challenge) {
	if challenge == nil {
		fmt.Fprintln(cmd.OutOrStdout(), "No current challenge")
		return
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Current challenge: #%d %s (%s - %s)\n",
		challenge.ID, challengeLabel(challenge), formatDate(challenge.StartDate), formatDate(challenge.EndDate))
}

func formatEvent(event domain.RotationEvent) string {
	if event.ChallengeID == 0 {
		return fmt.Sprintf("%s  %-11s  tick=%s", event.At.UTC().Format(time.RFC3339), event.Type, event.TickID)
	}
	return fmt.Sprintf("%s  %-11s  challenge=%d  tick=%s", event.At.UTC().Format(time.RFC3339), event.Type, event.ChallengeID, event.TickID)
}
