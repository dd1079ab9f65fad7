package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"ouvidoria/backend/internal/api/handler"
	"ouvidoria/backend/internal/app"
	"ouvidoria/backend/internal/complaint"
	"ouvidoria/backend/internal/config"
	"strings"
	"text/tabwriter"
	"time"
)

const usage = `Usage: admin <command> [args]

Commands:
  list                        list every complaint, newest first
  show <protocol>             print one complaint as JSON
  respond <protocol> <text>   attach a response to a complaint
  eligible <enrollment-id>    check an enrollment number against the eligibility source
  token <subject> [ttl]       sign an admin API token (default ttl 12h)`

func main() {
	if len(os.Args) < 2 {
		fmt.Println(usage)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	if err := run(context.Background(), cfg, os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, args []string, out io.Writer) error {
	command := args[0]

	if command == "token" {
		return issueToken(cfg, args[1:], out)
	}

	// Logs go to stderr so command output stays pipeable.
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel}))
	deps, err := app.Open(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer deps.Close()

	svc := complaint.NewService(deps.Store, deps.Oracle, complaint.WithLogger(logger))

	switch command {
	case "list":
		if len(args) != 1 {
			return fmt.Errorf("usage: admin list")
		}
		return listComplaints(ctx, svc, out)

	case "show":
		if len(args) != 2 {
			return fmt.Errorf("usage: admin show <protocol>")
		}
		c, err := svc.GetByProtocol(ctx, args[1])
		if err != nil {
			return err
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "    ")
		return enc.Encode(c)

	case "respond":
		if len(args) < 3 {
			return fmt.Errorf("usage: admin respond <protocol> <text>")
		}
		text := strings.Join(args[2:], " ")
		if err := svc.AttachResponse(ctx, args[1], text); err != nil {
			return err
		}
		fmt.Fprintf(out, "Complaint %s has been responded.\n", args[1])
		return nil

	case "eligible":
		if len(args) != 2 {
			return fmt.Errorf("usage: admin eligible <enrollment-id>")
		}
		id, err := complaint.NormalizeEnrollmentID(args[1])
		if err != nil {
			return err
		}
		ok, err := deps.Oracle.IsEligible(ctx, id)
		if err != nil {
			return err
		}
		if ok {
			fmt.Fprintf(out, "Enrollment %s is eligible.\n", id)
		} else {
			fmt.Fprintf(out, "Enrollment %s is not eligible.\n", id)
		}
		return nil

	default:
		return fmt.Errorf("unknown command %q\n\n%s", command, usage)
	}
}

func listComplaints(ctx context.Context, svc *complaint.Service, out io.Writer) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PROTOCOL\tCREATED\tSTATUS\tCATEGORY\tENROLLMENT\tFILER")
	for _, c := range svc.ListAll(ctx) {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			c.Protocol,
			c.CreatedAt.Local().Format("2006-01-02 15:04"),
			c.Status,
			c.Category,
			c.EnrollmentID,
			c.FilerName,
		)
	}
	return w.Flush()
}

func issueToken(cfg config.Config, args []string, out io.Writer) error {
	if len(args) < 1 || len(args) > 2 {
		return fmt.Errorf("usage: admin token <subject> [ttl]")
	}
	ttl := 12 * time.Hour
	if len(args) == 2 {
		var err error
		if ttl, err = time.ParseDuration(args[1]); err != nil {
			return fmt.Errorf("invalid ttl: %w", err)
		}
	}
	token, err := handler.GenerateAdminToken([]byte(cfg.AdminTokenSecret), args[0], ttl)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, token)
	return nil
}
