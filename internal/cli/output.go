package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"sigs.k8s.io/yaml"

	"github.com/iac-studio/rolecfg/internal/models"
)

func encode(w io.Writer, format outputFormat, v any) error {
	switch format {
	case outputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case outputYAML:
		b, err := yaml.Marshal(v)
		if err != nil {
			return fmt.Errorf("encoding as yaml failed: %w", err)
		}
		_, err = w.Write(b)
		return err
	default:
		return fmt.Errorf("unknown output format: %q", format)
	}
}

func renderTable(w io.Writer, header table.Row, rows []table.Row) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(header)
	t.AppendRows(rows)
	style := table.StyleLight
	style.Options.DrawBorder = false
	t.SetStyle(style)
	t.Render()
}

var configHeader = table.Row{"ID", "Project", "Role", "Deploy Group", "Replicas", "CPU", "Memory", "Delete"}

func configRow(cfg *models.DeployGroupRole) table.Row {
	var project, role, group string
	if cfg.Project != nil {
		project = cfg.Project.Name
	}
	if cfg.Role != nil {
		role = cfg.Role.Name
	}
	if cfg.DeployGroup != nil {
		group = cfg.DeployGroup.Name
		if !cfg.DeployGroup.Active() {
			group += " (deleted)"
		}
	}

	cpuLimit := "none"
	if limit, ok := cfg.CPULimit(); ok {
		cpuLimit = strconv.FormatFloat(limit, 'f', -1, 64)
	}
	return table.Row{
		cfg.ID.String(),
		project,
		role,
		group,
		cfg.Replicas,
		strconv.FormatFloat(cfg.RequestsCPU, 'f', -1, 64) + " / " + cpuLimit,
		fmt.Sprintf("%dM / %dM", cfg.RequestsMemory, cfg.LimitsMemory),
		cfg.DeleteResource,
	}
}
