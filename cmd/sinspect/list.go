package main

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"sinspect/pkg/axis"
	"sinspect/pkg/config"
	"sinspect/pkg/session"
)

var (
	summaryStyle = lipgloss.NewStyle().Bold(true)
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
)

func newListCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "list <data-file>",
		Short: "List groups and regions with their selection state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(*configPath)
			if err != nil {
				return err
			}
			sess := session.New(newLogger(cmd, false))
			if err := sess.Open(args[0]); err != nil {
				return err
			}
			if err := applyConfig(sess, cfg); err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), renderRegions(sess))
			return nil
		},
	}
}

// renderRegions draws one table row per region with its label, axis and a
// summary of the aggregate counts.
func renderRegions(sess *session.Session) string {
	file := sess.File()

	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetHeader([]string{"Group", "Region", "Scan mode", "X axis", "Samples", "Channels", "Extended", "Counts min", "Counts max", "Counts mean"})
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetAutoWrapText(false)

	total := 0
	for _, ref := range sess.Refs() {
		sel, err := sess.Selection(ref)
		if err != nil {
			continue
		}
		r := sel.Region()
		counts := sel.Counts()
		table.Append([]string{
			file.Groups[ref.Group].Name,
			sel.Label(),
			string(r.ScanMode),
			r.Axis().Label,
			strconv.Itoa(r.Len()),
			sel.CountsLabel(),
			fmt.Sprint(sel.SelectedExtended()),
			formatStat(floats.Min(counts)),
			formatStat(floats.Max(counts)),
			formatStat(stat.Mean(counts, nil)),
		})
		total++
	}
	table.SetFooter([]string{"", fmt.Sprintf("Total regions %d", total), "", "", "", "", "", "", "", ""})
	table.Render()

	summary := summaryStyle.Render(fmt.Sprintf("Normalisation: %s", sess.Mode()))
	if ref, ok := sess.NormalizationReference(); ok {
		if r, err := sess.Region(ref); err == nil {
			summary += "\n" + fmt.Sprintf("Reference: %s/%s", file.Groups[ref.Group].Name, r.Name)
		}
	}
	if mismatched := mismatchedRegions(sess); len(mismatched) > 0 {
		summary += "\n" + warningStyle.Render(fmt.Sprintf("Axes differ from the reference: %s", strings.Join(mismatched, ", ")))
	}
	return fmt.Sprintf("%s\n%s\n", buf.String(), summary)
}

// mismatchedRegions names the regions that cannot be double
// normalised against the current reference.
func mismatchedRegions(sess *session.Session) []string {
	ctx := sess.Context()
	if ctx.Double == nil || ctx.Double.Region == nil {
		return nil
	}
	var names []string
	for _, ref := range sess.Refs() {
		r, err := sess.Region(ref)
		if err != nil {
			continue
		}
		if !axis.Compatible(r, ctx.Double.Region, axis.DefaultRTol) {
			names = append(names, r.Name)
		}
	}
	return names
}

func formatStat(v float64) string {
	return strconv.FormatFloat(v, 'g', 6, 64)
}
