package main

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/san-kum/tecolab/internal/config"
	"github.com/san-kum/tecolab/internal/control"
	"github.com/san-kum/tecolab/internal/experiment"
	"github.com/san-kum/tecolab/internal/metrics"
	"github.com/san-kum/tecolab/internal/protocol"
	"github.com/san-kum/tecolab/internal/storage"
	"github.com/san-kum/tecolab/internal/viz"
)

func validateExperiment(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	table, warnings, err := experiment.Load(args[0], cfg.Period)
	if err != nil {
		return err
	}
	experiment.Render(os.Stdout, table)
	for _, w := range warnings {
		fmt.Println(viz.StatusStopped.Render("warning: ") + w.Error())
	}
	fmt.Printf("%s %d rows, %.1f s at %d ms\n", viz.StatusRunning.Render("ok"),
		table.Len(), float64(table.Final())/1000, cfg.Period)
	return nil
}

func listPorts(cmd *cobra.Command, args []string) error {
	names, err := protocol.SerialLister()
	if err != nil {
		return err
	}
	if len(names) == 0 {
		fmt.Println(viz.Subtle.Render("no serial ports"))
		return nil
	}
	for _, n := range names {
		fmt.Println(n)
	}
	if !probe {
		return nil
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if _, err := setupLogging(cfg); err != nil {
		return err
	}
	d := protocol.NewDiscoverer(cfg.Serial.Baud, cfg.Serial.ReadTimeout, cfg.Serial.BootDelay)
	link, err := d.Discover(context.Background())
	if err != nil {
		return err
	}
	defer link.Close()
	fmt.Println(viz.StatusRunning.Render("board: ") + link.Name())
	return nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	runs, err := storage.New(cfg.Log.Dir).List()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println(viz.Subtle.Render("no runs"))
		return nil
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"ID", "EXPERIMENT", "CONTROLLER", "PERIOD", "CYCLES", "STATUS"})
	table.SetAutoFormatHeaders(false)
	for _, r := range runs {
		status := "finished"
		switch {
		case r.Error != "":
			status = "failed"
		case r.Stopped:
			status = "stopped"
		case r.Finished.IsZero():
			status = "incomplete"
		}
		if r.Simulated {
			status += " (sim)"
		}
		table.Append([]string{
			r.ID,
			r.Experiment,
			r.Controller,
			strconv.FormatInt(r.PeriodMs, 10) + "ms",
			strconv.Itoa(r.Cycles),
			status,
		})
	}
	table.Render()
	return nil
}

func plotRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	st := storage.New(cfg.Log.Dir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	records, err := st.LoadRecords(args[0])
	if err != nil {
		return err
	}

	fmt.Println(viz.Title.Render(meta.ID) + "  " + viz.Subtle.Render(meta.Experiment+" / "+meta.Controller))
	fmt.Println(viz.PlotRun(records, 70, 15))
	printMetrics(metrics.Summarize(records))
	return nil
}

func listControllers(cmd *cobra.Command, args []string) error {
	reg := control.NewRegistry()
	for _, name := range reg.List() {
		d, err := reg.Get(name)
		if err != nil {
			return err
		}
		fmt.Printf("%-14s %s\n", name, viz.Subtle.Render(string(d.Kind)))
	}
	return nil
}

func listPresets(cmd *cobra.Command, args []string) error {
	for _, name := range config.ListPresets() {
		p := config.GetPreset(name)
		fmt.Printf("%-10s %s\n", name, viz.Subtle.Render(fmt.Sprintf(
			"ambient %.0f°C  capacity %.0f J/K  power %.0f W", p.Ambient, p.Capacity, p.Power)))
	}
	return nil
}
