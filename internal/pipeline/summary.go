package pipeline

import (
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mahyarmirrashed/obfus/internal/config"
	"github.com/mahyarmirrashed/obfus/internal/fileset"
)

// Summary renders the settings of a run as a table.
func Summary(plan fileset.Plan, cfg config.Config) string {
	or := func(s, fallback string) string {
		if s == "" {
			return fallback
		}
		return s
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"Setting", "Value"})
	tw.AppendRow(table.Row{"Mode", string(plan.Mode)})
	tw.AppendRow(table.Row{"Config", or(cfg.Source, "(none)")})
	tw.AppendRow(table.Row{"Preset", or(cfg.Preset, "(none)")})
	if plan.Mode == config.ModeCompress {
		tw.AppendRow(table.Row{"Level", strconv.Itoa(cfg.Level)})
		tw.AppendRow(table.Row{"Output", plan.Output})
		tw.AppendRow(table.Row{"Recipients", strings.Join(cfg.Recipients, "\n")})
		tw.AppendRow(table.Row{"Files", strings.Join(plan.Inputs, "\n")})
	} else {
		tw.AppendRow(table.Row{"Archives", strings.Join(plan.Inputs, "\n")})
		tw.AppendRow(table.Row{"Extract to", plan.WorkDir})
	}
	tw.AppendRow(table.Row{"Keep sources", strconv.FormatBool(cfg.Keep)})
	tw.AppendRow(table.Row{"Force", strconv.FormatBool(cfg.Force)})
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignLeft},
		{Number: 2, Align: text.AlignLeft},
	})
	return tw.Render()
}
