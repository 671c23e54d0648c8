package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"campaigndash/internal/domain"
	"campaigndash/internal/infrastructure"
	"campaigndash/internal/usecase"
	"campaigndash/pkg/logger"

	"github.com/spf13/cobra"
)

const (
	fetchTimeout  = 30 * time.Second
	fetchMaxBytes = 64 << 20
)

type reportOptions struct {
	sort      string
	direction string
	from      string
	to        string
	asJSON    bool
}

func newReportCmd(logLevel, timezone *string) *cobra.Command {
	opts := &reportOptions{}

	cmd := &cobra.Command{
		Use:   "report FILE|URL",
		Short: "Print stats and the campaign table for an export file",
		Long: `Decode a CSV, XLSX or XLS campaign export, normalize it and print
aggregate stats, best and worst campaign, and the filtered table.
FILE may also be an http(s) URL.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			log := logger.New(*logLevel, "text")
			log.SetOutput(cmd.ErrOrStderr())

			loc, err := loadLocation(*timezone)
			if err != nil {
				return err
			}

			filter, err := opts.filter()
			if err != nil {
				return err
			}

			return runReport(cmd.Context(), cmd.OutOrStdout(), args[0], filter, opts.asJSON, loc, log)
		},
	}

	cmd.Flags().StringVar(&opts.sort, "sort", string(domain.SortNone), "sort field: none, revenue, orders, openRate, clickRate, time")
	cmd.Flags().StringVar(&opts.direction, "direction", string(domain.SortDesc), "sort direction: asc or desc")
	cmd.Flags().StringVar(&opts.from, "from", "", "first send date, YYYY-MM-DD")
	cmd.Flags().StringVar(&opts.to, "to", "", "last send date, YYYY-MM-DD")
	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "print the dashboard as JSON")

	return cmd
}

func (o *reportOptions) filter() (domain.FilterOptions, error) {
	field := domain.SortField(o.sort)
	if !field.Valid() {
		return domain.FilterOptions{}, fmt.Errorf("unknown sort field %q", o.sort)
	}
	dir := domain.SortDirection(o.direction)
	if dir != domain.SortAsc && dir != domain.SortDesc {
		return domain.FilterOptions{}, fmt.Errorf("unknown sort direction %q", o.direction)
	}
	for _, d := range []string{o.from, o.to} {
		if d == "" {
			continue
		}
		if _, err := time.Parse("2006-01-02", d); err != nil {
			return domain.FilterOptions{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", d)
		}
	}

	return domain.FilterOptions{
		SortField:     field,
		SortDirection: dir,
		DateFrom:      o.from,
		DateTo:        o.to,
	}, nil
}

func loadLocation(name string) (*time.Location, error) {
	if name == "" || name == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", name, err)
	}
	return loc, nil
}

func runReport(
	ctx context.Context,
	out io.Writer,
	source string,
	filter domain.FilterOptions,
	asJSON bool,
	loc *time.Location,
	log *logger.Logger,
) error {
	name, r, err := openSource(ctx, source, log)
	if err != nil {
		return err
	}
	defer r.Close()

	rows, err := infrastructure.NewFileDecoder(loc, log).Decode(ctx, name, r)
	if err != nil {
		return err
	}

	campaigns := usecase.NewRecordBuilder(loc).BuildAll(rows)
	log.WithFields(map[string]any{
		"file":      name,
		"rows":      len(rows),
		"campaigns": len(campaigns),
	}).Info("Decoded campaign file")

	dashboard := usecase.Summarize(campaigns, filter, loc)
	dashboard.Dataset = &domain.Dataset{
		FileName: name,
		Kind:     domain.FileKindFromName(name),
	}

	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(dashboard)
	}
	return printReport(out, dashboard)
}

func openSource(ctx context.Context, source string, log *logger.Logger) (string, io.ReadCloser, error) {
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		name, body, err := infrastructure.NewFileFetcher(fetchTimeout, fetchMaxBytes, log).Fetch(ctx, source)
		if err != nil {
			return "", nil, err
		}
		return name, io.NopCloser(bytes.NewReader(body)), nil
	}

	f, err := os.Open(source)
	if err != nil {
		return "", nil, fmt.Errorf("failed to open %s: %w", source, err)
	}
	return filepath.Base(source), f, nil
}

func printReport(out io.Writer, d domain.Dashboard) error {
	s := d.Stats

	fmt.Fprintf(out, "File: %s\n", d.Dataset.FileName)
	if d.Filter.IsActive() {
		fmt.Fprintf(out, "Filter: sort=%s %s from=%q to=%q\n",
			d.Filter.SortField, d.Filter.SortDirection, d.Filter.DateFrom, d.Filter.DateTo)
	}
	if d.Filtered {
		fmt.Fprintf(out, "Campaigns: %d of %d\n", d.ShownCampaigns, d.TotalCampaigns)
	} else {
		fmt.Fprintf(out, "Campaigns: %d\n", d.TotalCampaigns)
	}
	fmt.Fprintf(out, "Recipients: %.0f  Opens: %.0f  Clicks: %.0f  Orders: %.0f\n",
		s.TotalRecipients, s.TotalOpens, s.TotalClicks, s.TotalOrders)
	fmt.Fprintf(out, "Revenue: %.2f\n", s.TotalRevenue)
	fmt.Fprintf(out, "Avg open rate: %.2f%%  Avg click rate: %.2f%%  Avg order rate: %.2f%%\n",
		s.AverageOpenRate, s.AverageClickRate, s.AverageOrderRate)
	if s.BestCampaign != nil {
		fmt.Fprintf(out, "Best: %s (%.2f)\n", s.BestCampaign.CampaignName, s.BestCampaign.Revenue)
	}
	if s.WorstCampaign != nil {
		fmt.Fprintf(out, "Worst: %s (%.2f)\n", s.WorstCampaign.CampaignName, s.WorstCampaign.Revenue)
	}
	fmt.Fprintln(out)

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "CAMPAIGN\tSEND TIME\tRECIPIENTS\tOPEN %\tCLICK %\tORDERS\tREVENUE")
	for _, c := range d.Campaigns {
		fmt.Fprintf(tw, "%s\t%s\t%.0f\t%.2f\t%.2f\t%.0f\t%.2f\n",
			c.CampaignName, c.SendTime, c.TotalRecipients, c.OpenRate, c.ClickRate, c.UniquePlacedOrder, c.Revenue)
	}
	return tw.Flush()
}
