package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/dandantas/pimpush/internal/model"
	"github.com/urfave/cli/v3"
)

func apiClient(cmd *cli.Command) (*APIClient, error) {
	user := cmd.String("user")
	if user == "" {
		return nil, fmt.Errorf("--user is required")
	}
	return NewAPIClient(cmd.String("server"), user, cmd.String("identity-header")), nil
}

// PushAction enqueues the rows of a CSV file and optionally waits for the result
func PushAction(ctx context.Context, cmd *cli.Command) error {
	client, err := apiClient(cmd)
	if err != nil {
		return err
	}

	rows, err := ReadRowsFile(cmd.String("file"))
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return fmt.Errorf("no rows in %s", cmd.String("file"))
	}

	resp, err := client.Enqueue(ctx, cmd.String("environment"), rows)
	if err != nil {
		return fmt.Errorf("failed to enqueue: %w", err)
	}

	fmt.Printf("Job %s queued (%d rows, position %d of %d)\n", resp.JobID, len(rows), resp.QueuePos, resp.QueueTotal)

	if !cmd.Bool("wait") {
		return nil
	}
	return waitAndReport(ctx, client, resp.JobID, cmd.Duration("interval"), os.Stdout)
}

// StatusAction prints a job, optionally waiting until it is terminal
func StatusAction(ctx context.Context, cmd *cli.Command) error {
	client, err := apiClient(cmd)
	if err != nil {
		return err
	}

	if cmd.Bool("wait") {
		return waitAndReport(ctx, client, cmd.String("id"), cmd.Duration("interval"), os.Stdout)
	}

	snap, err := client.Status(ctx, cmd.String("id"))
	if err != nil {
		return err
	}
	PrintSnapshot(os.Stdout, snap)
	return nil
}

// ListAction prints recent jobs
func ListAction(ctx context.Context, cmd *cli.Command) error {
	client, err := apiClient(cmd)
	if err != nil {
		return err
	}

	resp, err := client.List(ctx, cmd.String("status"), cmd.String("owner"), cmd.Int("page"), cmd.Int("limit"))
	if err != nil {
		return err
	}

	fmt.Printf("%d jobs (page %d)\n", resp.Total, resp.Page)
	for _, j := range resp.Results {
		fmt.Printf("%s  %-9s  %-10s  %-12s  %d/%d  ok=%d skipped=%d failed=%d  %s\n",
			j.ID, j.Status, j.User, j.Environment, j.Processed, j.Total,
			j.Summary.Succeeded, j.Summary.Skipped, j.Summary.Failed, j.CreatedAt)
	}
	return nil
}

func waitAndReport(ctx context.Context, client *APIClient, jobID string, interval time.Duration, w io.Writer) error {
	type progress struct {
		status    model.JobState
		processed int
		queuePos  int
	}
	var last progress
	snap, err := client.Wait(ctx, jobID, interval, func(s *model.JobSnapshot) {
		if cur := (progress{s.Status, s.Processed, s.QueuePos}); cur != last {
			last = cur
			if s.Status == model.JobPending {
				fmt.Fprintf(w, "waiting (position %d of %d)\n", s.QueuePos, s.QueueTotal)
			} else {
				fmt.Fprintf(w, "%s %d/%d\n", s.Status, s.Processed, s.Total)
			}
		}
	})
	if err != nil {
		return err
	}

	PrintSnapshot(w, snap)
	if snap.Status == model.JobError {
		return fmt.Errorf("job %s failed: %s", snap.ID, snap.Error)
	}
	return nil
}

// PrintSnapshot writes a human-readable job report
func PrintSnapshot(w io.Writer, snap *model.JobSnapshot) {
	fmt.Fprintf(w, "Job %s: %s (%d/%d rows)\n", snap.ID, snap.Status, snap.Processed, snap.Total)
	if snap.Error != "" {
		fmt.Fprintf(w, "  error: %s\n", snap.Error)
	}
	if snap.QueuePos > 0 {
		fmt.Fprintf(w, "  queue position %d of %d\n", snap.QueuePos, snap.QueueTotal)
	}

	for _, r := range snap.Results {
		var detail []string
		if r.Reason != "" {
			detail = append(detail, r.Reason)
		}
		if r.Response.Error != "" {
			detail = append(detail, r.Response.Error)
		}
		for _, p := range r.Response.Prices {
			if p.Unchanged {
				detail = append(detail, fmt.Sprintf("%s unchanged", p.Field))
			}
		}
		fmt.Fprintf(w, "  row %d  %-8s %s %s\n", r.Row+1, r.Status, r.ItemID, strings.Join(detail, "; "))
	}

	fmt.Fprintf(w, "  succeeded=%d skipped=%d failed=%d\n", snap.Summary.Succeeded, snap.Summary.Skipped, snap.Summary.Failed)
}
