package main

import (
	"context"
	"os"

	oplog "github.com/ethereum-optimism/optimism/op-service/log"
	"github.com/ethereum/go-ethereum/log"
	"github.com/mattn/go-isatty"
	"github.com/urfave/cli/v2"

	"github.com/settlement-labs/op-settler/config"
	"github.com/settlement-labs/op-settler/flags"
	"github.com/settlement-labs/op-settler/scenario"
	"github.com/settlement-labs/op-settler/verifier"
	"github.com/settlement-labs/op-settler/version"
)

func main() {
	if err := run(os.Args, settle); err != nil {
		log.Crit("Application failed", "err", err)
	}
}

type settleFunc func(ctx *cli.Context, logger log.Logger, cfg *config.Config) error

func run(args []string, action settleFunc) error {
	app := cli.NewApp()
	app.Version = version.SimpleWithMeta
	app.Name = "op-settler"
	app.Usage = "Optimistic rollup settlement verifier"
	app.Description = "Accepts rollup blocks and time-bounded fraud challenges, " +
		"and adjudicates challenges by deterministic replay of the disputed transaction."
	app.Flags = flags.Flags
	app.Action = func(ctx *cli.Context) error {
		logger, err := setupLogger(ctx)
		if err != nil {
			return err
		}
		cfg, err := flags.NewConfigFromCLI(ctx)
		if err != nil {
			return err
		}
		return action(ctx, logger, cfg)
	}
	return app.Run(args)
}

func setupLogger(ctx *cli.Context) (log.Logger, error) {
	lvl, err := oplog.LevelFromString(ctx.String(flags.LogLevelFlag.Name))
	if err != nil {
		return nil, err
	}
	useColor := isatty.IsTerminal(os.Stdout.Fd())
	handler := log.NewTerminalHandlerWithLevel(os.Stdout, lvl, useColor)
	return log.NewLogger(handler), nil
}

func settle(ctx *cli.Context, logger log.Logger, cfg *config.Config) error {
	s, err := scenario.Load(cfg.ScenarioPath)
	if err != nil {
		return err
	}
	if s.ChallengeTimeout != nil {
		cfg.ChallengeTimeout = *s.ChallengeTimeout
	}
	logger.Info("Starting op-settler",
		"version", version.SimpleWithMeta,
		"scenario", cfg.ScenarioPath,
		"challengeTimeout", cfg.ChallengeTimeout)

	svc, err := verifier.NewService(logger, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := svc.Stop(context.Background()); err != nil {
			logger.Error("Failed to stop service", "err", err)
		}
	}()

	v := svc.Verifier()
	runErr := s.Run(v)
	report(logger, v)
	return runErr
}

// report summarizes the final settlement state: the sole externally
// observable verdict is each block's commitment flag, with the resolved
// challenge log as the audit trail.
func report(logger log.Logger, v *verifier.Verifier) {
	for _, block := range v.Blocks() {
		logger.Info("Block",
			"number", block.Number,
			"txs", len(block.Transactions),
			"committed", block.Committed)
	}
	for _, challenge := range v.ResolvedChallenges() {
		logger.Info("Resolved challenge",
			"block", challenge.BlockNumber,
			"txIndex", challenge.TxIndex,
			"challenger", challenge.Challenger,
			"submittedAt", challenge.SubmittedAt,
			"verdict", challenge.Verdict)
	}
	if pending := v.PendingChallenges(); len(pending) > 0 {
		logger.Warn("Scenario ended with unresolved challenges", "pending", len(pending))
	}
}
