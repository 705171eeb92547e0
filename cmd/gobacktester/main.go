package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/urfave/cli/v2"

	"github.com/quantave/gobacktester/config"
	csvdata "github.com/quantave/gobacktester/data/csv"
	"github.com/quantave/gobacktester/engine"
	"github.com/quantave/gobacktester/events"
	"github.com/quantave/gobacktester/report"
	"github.com/quantave/gobacktester/statistics"
	"github.com/quantave/gobacktester/strategies"
)

func main() {
	app := &cli.App{
		Name:  "gobacktester",
		Usage: "deterministic bar-by-bar strategy backtesting",
		Commands: []*cli.Command{
			{
				Name:      "run",
				Usage:     "run a backtest from a JSON config file",
				ArgsUsage: "<config.json>",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "json",
						Usage: "write full statistics to this JSON file",
					},
					&cli.StringFlag{
						Name:  "trades",
						Usage: "write the closed-trade ledger to this CSV file",
					},
					&cli.BoolFlag{
						Name:    "verbose",
						Aliases: []string{"v"},
						Usage:   "log every fill and rejection as it happens",
					},
				},
				Action: runBacktest,
			},
			{
				Name:   "strategies",
				Usage:  "list the available strategies",
				Action: listStrategies,
			},
		},
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runBacktest(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.Exit("expected exactly one config file argument", 1)
	}
	cfg, err := config.ReadConfigFromFile(c.Args().First())
	if err != nil {
		return err
	}

	bars, err := csvdata.LoadFromFile(cfg.DataSettings.CSVData.FullPath)
	if err != nil {
		return err
	}

	strat, err := strategies.LoadStrategyByName(cfg.StrategySettings.Name)
	if err != nil {
		return err
	}

	var stream events.Stream
	if c.Bool("verbose") {
		logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
		stream = events.NewLogger(logger)
	}

	bt, err := engine.New(engine.Settings{
		Strategy:             strat,
		Bars:                 bars,
		InitialCash:          cfg.BrokerSettings.InitialCash,
		CommissionRate:       cfg.BrokerSettings.CommissionRate,
		Leverage:             cfg.BrokerSettings.Leverage,
		AllowFractionalSizes: cfg.BrokerSettings.AllowFractionalSizes,
		RiskFreeRate:         cfg.StatisticSettings.RiskFreeRate,
		CustomSettings:       cfg.StrategySettings.CustomSettings,
		Stream:               stream,
	})
	if err != nil {
		return err
	}

	stat, err := bt.Run()
	if err != nil {
		return err
	}

	if err := report.PrintSummary(stat, os.Stdout); err != nil {
		return err
	}
	if path := c.String("json"); path != "" {
		if err := report.WriteJSONFile(stat, path); err != nil {
			return err
		}
	}
	if path := c.String("trades"); path != "" {
		if err := report.WriteTradesCSV(stat, path); err != nil {
			return err
		}
	}
	return warnIfUnreconciled(stat, cfg.BrokerSettings.InitialCash)
}

// warnIfUnreconciled cross-checks the realised ledger against the equity
// delta and surfaces any mismatch, which would indicate corrupt input
func warnIfUnreconciled(stat *statistics.Statistic, initialCash decimal.Decimal) error {
	realised := decimal.Zero
	for i := range stat.Trades {
		realised = realised.Add(stat.Trades[i].ProfitLoss)
	}
	delta := decimal.NewFromFloat(stat.FinalEquity).Sub(initialCash)
	if !realised.Sub(delta).Abs().LessThan(decimal.NewFromFloat(0.01)) {
		fmt.Fprintf(os.Stderr, "warning: ledger P&L %s does not reconcile with equity delta %s\n",
			realised.String(), delta.String())
	}
	return nil
}

func listStrategies(*cli.Context) error {
	for _, h := range strategies.GetStrategies() {
		fmt.Printf("%-12s %s\n", h.Name(), h.Description())
	}
	return nil
}
