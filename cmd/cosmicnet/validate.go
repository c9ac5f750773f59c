package main

import (
	"fmt"
	"os"

	"github.com/thebreadishard/CosmicNetworkSim1/internal/galaxy"
)

func runValidate(configPath string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	problems := 0
	for _, fe := range cfg.Simulation.Validate() {
		warnf("simulation.%s\n", fe.String())
		problems++
	}
	for _, fe := range cfg.Grid.Validate() {
		warnf("%s\n", fe.String())
		problems++
	}

	table, err := galaxy.LoadTable(cfg.Galaxy.Table)
	if err != nil {
		warnf("galaxy table: %v\n", err)
		problems++
	}
	if problems > 0 {
		return fmt.Errorf("%d problem(s) found", problems)
	}

	printOK(fmt.Sprintf("%d groups, %d stars, connection distance %.1f",
		table.Count(), table.TargetPopulation(),
		cfg.Simulation.ConnectionDistance(maxRadius(table))))
	return nil
}

func maxRadius(t *galaxy.Table) float64 {
	m := 0.0
	for _, g := range t.Groups {
		if g.Radius > m {
			m = g.Radius
		}
	}
	return m
}

func warnf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format, args...)
}
